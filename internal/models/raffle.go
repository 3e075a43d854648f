package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RaffleConfig struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name         string          `gorm:"not null" json:"name"`
	TicketPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"ticket_price"`
	TotalTickets int             `gorm:"not null" json:"total_tickets"`
	DrawDate     *time.Time      `json:"draw_date"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (raffle *RaffleConfig) BeforeCreate(tx *gorm.DB) (err error) {
	if raffle.ID == uuid.Nil {
		raffle.ID = uuid.New()
	}
	return
}
