// internal/model/contact.go
package model

import "time"

type Contact struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	WhatsApp  string    `db:"whatsapp" json:"whatsapp"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Category ids the contact belongs to, filled by the repository on reads
	// that ask for them.
	CategoryIDs []string `db:"-" json:"category_ids,omitempty"`
}
