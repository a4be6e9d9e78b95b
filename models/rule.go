package models

import "strings"

/************************************************
/**** MARK: RULE TRIGGERS ****/
/************************************************/

// RULE_TRIGGER_WILDCARD casa com qualquer texto do usuário.
const RULE_TRIGGER_WILDCARD = "*"

/************************************************
/**** MARK: RESPONSE KINDS ****/
/************************************************/
const RULE_KIND_TEXT = "texto"
const RULE_KIND_BUTTON = "boton"
const RULE_KIND_LIST = "lista"
const RULE_KIND_IMAGE = "image"
const RULE_KIND_VIDEO = "video"
const RULE_KIND_AUDIO = "audio"
const RULE_KIND_DOCUMENT = "document"
const RULE_KIND_FLOW = "flow"

// Rule representa uma regra de automação: (step, trigger) -> (resposta, próximo step).
// Trigger pode ser um texto exato normalizado, uma lista de sinônimos separada por
// vírgula, ou o curinga "*".
type Rule struct {
	ID       int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Step     string `gorm:"not null;index" json:"step"`
	Trigger  string `gorm:"column:trigger_text;not null" json:"trigger"`
	Response string `gorm:"type:text;not null" json:"response"`
	NextStep string `gorm:"default:''" json:"next_step"`
	Kind     string `gorm:"not null;default:'texto'" json:"kind"`
	Options  string `gorm:"type:text" json:"options"`
	RoleTag  string `gorm:"default:''" json:"role_tag"`
	Calc     string `gorm:"type:text" json:"calc"`
	Handler  string `gorm:"default:''" json:"handler"`

	Medias []RuleMedia `gorm:"foreignkey:RuleID" json:"medias"`
}

// RuleMedia é um anexo extra de uma regra (enviado como follow-up sem corpo).
type RuleMedia struct {
	ID       int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	RuleID   int64  `gorm:"not null;index" json:"rule_id"`
	MediaURL string `gorm:"type:text;not null" json:"media_url"`
	Kind     string `gorm:"default:''" json:"kind"`
}

// IsWildcard informa se a regra usa o trigger curinga.
func (r *Rule) IsWildcard() bool {
	return strings.TrimSpace(r.Trigger) == RULE_TRIGGER_WILDCARD
}

// IsCalculator informa se a regra calcula um valor a partir da medida digitada.
func (r *Rule) IsCalculator() bool {
	return strings.TrimSpace(r.Calc) != "" || strings.TrimSpace(r.Handler) != ""
}

// Triggers devolve a lista de sinônimos do trigger (split por vírgula, já aparado).
func (r *Rule) Triggers() []string {
	parts := strings.Split(r.Trigger, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
