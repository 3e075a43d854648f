package repository

import (
	"context"
	"errors"

	"github.com/autoracer/raffle-backend/internal/models"
)

// ErrDuplicateKey is returned when an insert violates a uniqueness guard:
// a second validated payment with the same reference, or a ticket number
// already claimed by a concurrent allocation.
var ErrDuplicateKey = errors.New("duplicate key violation")

type Repository interface {
	HasValidatedPayment(ctx context.Context, reference string) (bool, error)
	CreateParticipant(ctx context.Context, participant *models.Participant) error
	CreatePayment(ctx context.Context, payment *models.Payment) error

	// AllocateTickets assigns a contiguous block of quantity ticket numbers
	// starting at max(ticket_number)+1, all inside one transaction so a
	// failed batch leaves no gaps. Returns ErrDuplicateKey when a concurrent
	// allocation claimed one of the numbers first.
	AllocateTickets(ctx context.Context, participant *models.Participant, reference string, quantity int) ([]int, error)

	CountPaidTickets(ctx context.Context) (int64, error)
	ListPayments(ctx context.Context) ([]models.Payment, error)
	GetRaffleConfig(ctx context.Context) (*models.RaffleConfig, error)
	UpdateRaffleConfig(ctx context.Context, raffle *models.RaffleConfig) error
}
