package models

import "time"

// Role é uma etiqueta endereçada por keyword (ex: "ventas") usada para
// rotear contatos a equipes.
type Role struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Name      string     `gorm:"not null" json:"name"`
	Keyword   string     `gorm:"not null;unique_index" json:"keyword"`
	CreatedAt *time.Time `json:"created_at"`
}

// ContactRole associa um contato a um role. A associação é idempotente
// (insert-if-absent).
type ContactRole struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Contact   string     `gorm:"not null;unique_index:idx_contact_role" json:"contact"`
	RoleID    int64      `gorm:"not null;unique_index:idx_contact_role" json:"role_id"`
	CreatedAt *time.Time `json:"created_at"`
}
