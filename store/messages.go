package store

import (
	"github.com/jinzhu/gorm"

	"chatflow/models"
)

// Messages grava o histórico de conversa.
type Messages struct {
	db *gorm.DB
}

func NewMessages(db *gorm.DB) *Messages {
	return &Messages{db: db}
}

func (s *Messages) Append(m *models.Message) error {
	return s.db.Create(m).Error
}

// Recent devolve as últimas mensagens de um contato, mais novas primeiro.
func (s *Messages) Recent(contact string, limit int) ([]models.Message, error) {
	var out []models.Message
	err := s.db.Where("contact = ?", contact).
		Order("id desc").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
