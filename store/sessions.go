package store

import (
	"time"

	"github.com/jinzhu/gorm"

	"chatflow/models"
)

// Sessions persiste o estado de conversa por contato.
type Sessions struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSessions(db *gorm.DB) *Sessions {
	return &Sessions{db: db, now: time.Now}
}

// Get devolve a sessão do contato ou nil quando ele nunca conversou.
func (s *Sessions) Get(contact string) (*models.ChatSession, error) {
	var sess models.ChatSession
	err := s.db.Where("contact = ?", contact).First(&sess).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Set cria (se preciso) e posiciona a sessão no step, renovando a atividade.
func (s *Sessions) Set(contact, step, status string) error {
	sess := models.ChatSession{Contact: contact}
	if err := s.db.Where(models.ChatSession{Contact: contact}).FirstOrCreate(&sess).Error; err != nil {
		return err
	}
	return s.db.Model(&sess).Updates(map[string]interface{}{
		"current_step":  step,
		"status":        status,
		"last_activity": s.now(),
	}).Error
}

// SetPending grava (ou limpa, com nil) a regra pendente do contato.
func (s *Sessions) SetPending(contact string, ruleID *int64) error {
	return s.db.Model(&models.ChatSession{}).
		Where("contact = ?", contact).
		Update("pending_rule_id", ruleID).Error
}

// Clear encerra a conversa: step vazio e pendência limpa. A linha permanece.
func (s *Sessions) Clear(contact string) error {
	return s.db.Model(&models.ChatSession{}).
		Where("contact = ?", contact).
		Updates(map[string]interface{}{
			"current_step":    "",
			"pending_rule_id": nil,
		}).Error
}

// Touch renova a última atividade do contato.
func (s *Sessions) Touch(contact string) error {
	return s.db.Model(&models.ChatSession{}).
		Where("contact = ?", contact).
		Update("last_activity", s.now()).Error
}

// ListExpired devolve sessões abertas paradas desde antes do corte.
func (s *Sessions) ListExpired(cutoff time.Time) ([]models.ChatSession, error) {
	var out []models.ChatSession
	err := s.db.Where("current_step <> '' AND last_activity < ?", cutoff).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
