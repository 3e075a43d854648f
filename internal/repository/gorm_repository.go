package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/autoracer/raffle-backend/internal/models"
	"gorm.io/gorm"
)

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

var _ Repository = (*GormRepository)(nil)

func translateError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}

func (r *GormRepository) HasValidatedPayment(ctx context.Context, reference string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("reference_suffix = ? AND status = ?", reference, models.PaymentStatusValidated).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepository) CreateParticipant(ctx context.Context, participant *models.Participant) error {
	return translateError(r.db.WithContext(ctx).Create(participant).Error)
}

func (r *GormRepository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return translateError(r.db.WithContext(ctx).Create(payment).Error)
}

func (r *GormRepository) AllocateTickets(ctx context.Context, participant *models.Participant, reference string, quantity int) ([]int, error) {
	var numbers []int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxNumber sql.NullInt64
		if err := tx.Model(&models.Ticket{}).Select("MAX(ticket_number)").Scan(&maxNumber).Error; err != nil {
			return err
		}

		start := int(maxNumber.Int64) + 1
		tickets := make([]models.Ticket, 0, quantity)
		for i := 0; i < quantity; i++ {
			tickets = append(tickets, models.Ticket{
				TicketNumber:  start + i,
				ParticipantID: participant.ID,
				HolderName:    participant.Name,
				HolderPhone:   participant.Phone,
				Reference:     reference,
				Status:        models.TicketStatusPaid,
			})
		}

		if err := tx.Create(&tickets).Error; err != nil {
			return err
		}

		numbers = make([]int, 0, quantity)
		for _, ticket := range tickets {
			numbers = append(numbers, ticket.TicketNumber)
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	return numbers, nil
}

func (r *GormRepository) CountPaidTickets(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("status = ?", models.TicketStatusPaid).
		Count(&count).Error
	return count, err
}

func (r *GormRepository) ListPayments(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Preload("Participant").
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

func (r *GormRepository) GetRaffleConfig(ctx context.Context) (*models.RaffleConfig, error) {
	var raffle models.RaffleConfig
	if err := r.db.WithContext(ctx).First(&raffle).Error; err != nil {
		return nil, err
	}
	return &raffle, nil
}

func (r *GormRepository) UpdateRaffleConfig(ctx context.Context, raffle *models.RaffleConfig) error {
	return r.db.WithContext(ctx).Save(raffle).Error
}
