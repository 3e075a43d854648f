package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusValidated = "validated"
	PaymentStatusRejected  = "rejected"
)

// Verdict is the structured output of a payment proof validation. It is
// stored verbatim on the payment row for audit.
type Verdict struct {
	Valid      bool    `json:"valid"`
	Confidence float64 `json:"confidence"`
	Details    string  `json:"details"`
}

func (v Verdict) Value() (driver.Value, error) {
	return json.Marshal(v)
}

func (v *Verdict) Scan(value interface{}) error {
	if value == nil {
		*v = Verdict{}
		return nil
	}
	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, v)
	case string:
		return json.Unmarshal([]byte(data), v)
	}
	return errors.New("unsupported type for Verdict")
}

type Payment struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ParticipantID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"participant_id"`
	Participant      *Participant    `gorm:"foreignKey:ParticipantID" json:"participant,omitempty"`
	BankFrom         string          `json:"bank_from"`
	PaymentPhone     string          `json:"payment_phone"`
	AmountPaid       decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount_paid"`
	ReferenceSuffix  string          `gorm:"not null;index" json:"reference_suffix"`
	ScreenshotURL    string          `json:"screenshot_url"`
	Status           string          `gorm:"not null;default:'pending'" json:"status"`
	ValidationResult Verdict         `gorm:"type:jsonb" json:"validation_result"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (payment *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	return
}
