package models

import "time"

/************************************************
/**** MARK: SESSION STATUS ****/
/************************************************/
const SESSION_STATUS_AWAITING_USER = "espera_usuario"
const SESSION_STATUS_WITH_AGENT = "asesor"

// ChatSession guarda o estado de conversa de um contato: step atual, status e
// última atividade. Nunca é removida, apenas resetada (step limpo) por timeout
// ou reinício explícito.
type ChatSession struct {
	ID            int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Contact       string     `gorm:"not null;unique_index" json:"contact"`
	CurrentStep   string     `gorm:"default:''" json:"current_step"`
	Status        string     `gorm:"not null;default:'espera_usuario'" json:"status"`
	PendingRuleID *int64     `json:"pending_rule_id"`
	LastActivity  time.Time  `gorm:"index" json:"last_activity"`
	CreatedAt     *time.Time `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}
