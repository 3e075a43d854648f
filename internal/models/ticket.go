package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TicketStatusPaid     = "pagado"
	TicketStatusReserved = "reservado"
)

// Ticket numbers are globally unique and dense, starting at 1. A number is
// permanent once assigned and tickets are never deleted.
type Ticket struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TicketNumber  int       `gorm:"uniqueIndex;not null" json:"ticket_number"`
	ParticipantID uuid.UUID `gorm:"type:uuid;index" json:"participant_id"`
	HolderName    string    `gorm:"not null" json:"holder_name"`
	HolderPhone   string    `json:"holder_phone"`
	Reference     string    `gorm:"index" json:"reference"`
	Status        string    `gorm:"not null;default:'pagado'" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	return
}
