package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Participant is created for every submitted payment proof, including ones
// that end up rejected. A participant row is an audit record, not an
// indication that a payment was approved.
type Participant struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	NationalID string    `json:"national_id"`
	Phone      string    `gorm:"not null" json:"phone"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
}

func (participant *Participant) BeforeCreate(tx *gorm.DB) (err error) {
	if participant.ID == uuid.Nil {
		participant.ID = uuid.New()
	}
	return
}
