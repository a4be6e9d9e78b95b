package store

import (
	"github.com/jinzhu/gorm"

	"chatflow/models"
)

// Dedup registra event ids já processados do provedor.
type Dedup struct {
	db *gorm.DB
}

func NewDedup(db *gorm.DB) *Dedup {
	return &Dedup{db: db}
}

// Register devolve true na primeira vez que vê o event id. Em corrida, a chave
// primária resolve: o segundo insert falha e o evento é tratado como repetido.
func (s *Dedup) Register(eventID string) (bool, error) {
	var count int
	err := s.db.Model(&models.ProcessedEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	if err := s.db.Create(&models.ProcessedEvent{EventID: eventID}).Error; err != nil {
		var again int
		if e := s.db.Model(&models.ProcessedEvent{}).
			Where("event_id = ?", eventID).
			Count(&again).Error; e == nil && again > 0 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
