package models

import "time"

/************************************************
/**** MARK: MESSAGE ORIGINS ****/
/************************************************/
const MESSAGE_ORIGIN_CLIENT = "cliente"
const MESSAGE_ORIGIN_CLIENT_IMAGE = "cliente_image"
const MESSAGE_ORIGIN_CLIENT_AUDIO = "cliente_audio"
const MESSAGE_ORIGIN_CLIENT_VIDEO = "cliente_video"
const MESSAGE_ORIGIN_BOT = "bot"

// Message é uma linha do log de conversa (inbound e outbound).
type Message struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Contact   string     `gorm:"not null;index" json:"contact"`
	Body      string     `gorm:"type:text" json:"body"`
	Origin    string     `gorm:"not null" json:"origin"`
	MediaID   string     `gorm:"default:''" json:"media_id"`
	MediaURL  string     `gorm:"type:text" json:"media_url"`
	MimeType  string     `gorm:"default:''" json:"mime_type"`
	Step      string     `gorm:"default:''" json:"step"`
	RuleID    *int64     `json:"rule_id"`
	CreatedAt *time.Time `gorm:"index" json:"created_at"`
}
