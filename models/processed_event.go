package models

import "time"

// ProcessedEvent registra o id de um evento do provedor já processado.
// A checagem de pertencimento é o primeiro gate de todo evento inbound
// (entregas at-least-once precisam ser idempotentes).
type ProcessedEvent struct {
	EventID   string     `gorm:"primary_key" json:"event_id"`
	CreatedAt *time.Time `json:"created_at"`
}
