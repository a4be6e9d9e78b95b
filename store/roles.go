package store

import (
	"log"

	"github.com/jinzhu/gorm"

	"chatflow/models"
)

// Roles etiqueta contatos com papéis de atendimento.
type Roles struct {
	db *gorm.DB
}

func NewRoles(db *gorm.DB) *Roles {
	return &Roles{db: db}
}

// Tag associa o contato ao papel da keyword. Keyword sem papel cadastrado é
// ignorada; etiquetar duas vezes é idempotente.
func (s *Roles) Tag(contact, keyword string) error {
	var role models.Role
	err := s.db.Where("keyword = ?", keyword).First(&role).Error
	if gorm.IsRecordNotFoundError(err) {
		log.Printf("store: papel não cadastrado para keyword %q", keyword)
		return nil
	}
	if err != nil {
		return err
	}

	link := models.ContactRole{Contact: contact, RoleID: role.ID}
	return s.db.Where(models.ContactRole{Contact: contact, RoleID: role.ID}).
		FirstOrCreate(&link).Error
}
