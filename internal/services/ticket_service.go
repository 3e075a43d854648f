package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/autoracer/raffle-backend/internal/models"
	"github.com/autoracer/raffle-backend/internal/monitoring"
	"github.com/autoracer/raffle-backend/internal/repository"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRequest     = errors.New("missing or invalid required fields")
	ErrDuplicatePayment   = errors.New("payment reference already registered")
	ErrValidationRejected = errors.New("payment proof rejected")
)

const (
	defaultConfidenceThreshold = 0.6
	defaultValidationTimeout   = 30 * time.Second
	allocationRetries          = 3
)

// PaymentProof is the canonical submission, aliases already resolved at the
// HTTP boundary.
type PaymentProof struct {
	Name         string
	NationalID   string
	Phone        string
	Email        string
	Quantity     int
	BankFrom     string
	PaymentPhone string
	AmountPaid   decimal.Decimal
	Reference    string
	ScreenshotURL string
	Image        ProofImage
}

func (p PaymentProof) validate() error {
	if strings.TrimSpace(p.Name) == "" ||
		strings.TrimSpace(p.Phone) == "" ||
		strings.TrimSpace(p.Reference) == "" {
		return ErrInvalidRequest
	}
	if !p.AmountPaid.IsPositive() {
		return ErrInvalidRequest
	}
	if p.Quantity < 1 {
		return ErrInvalidRequest
	}
	return nil
}

// TicketService orchestrates the full submission workflow: duplicate check,
// participant + payment recording, proof validation, ticket allocation and
// operator notification.
type TicketService struct {
	repo              repository.Repository
	validator         ProofValidator
	notifier          Notifier
	threshold         float64
	validationTimeout time.Duration
}

func NewTicketService(repo repository.Repository, validator ProofValidator, notifier Notifier, threshold float64, validationTimeout time.Duration) *TicketService {
	if threshold <= 0 {
		threshold = defaultConfidenceThreshold
	}
	if validationTimeout <= 0 {
		validationTimeout = defaultValidationTimeout
	}
	return &TicketService{
		repo:              repo,
		validator:         validator,
		notifier:          notifier,
		threshold:         threshold,
		validationTimeout: validationTimeout,
	}
}

// SubmitPayment returns the allocated ticket numbers on success. On
// ErrValidationRejected the verdict explains the rejection; the participant
// and the rejected payment row are already persisted for audit.
func (s *TicketService) SubmitPayment(ctx context.Context, proof PaymentProof) ([]int, models.Verdict, error) {
	if err := proof.validate(); err != nil {
		monitoring.PaymentSubmissions.WithLabelValues("invalid").Inc()
		return nil, models.Verdict{}, err
	}

	// Fast path only; the partial unique index on validated payments is the
	// real guard against two concurrent submissions with the same reference.
	duplicate, err := s.repo.HasValidatedPayment(ctx, proof.Reference)
	if err != nil {
		monitoring.PaymentSubmissions.WithLabelValues("error").Inc()
		return nil, models.Verdict{}, err
	}
	if duplicate {
		monitoring.PaymentSubmissions.WithLabelValues("duplicate").Inc()
		return nil, models.Verdict{}, ErrDuplicatePayment
	}

	// Participants are recorded for every attempt, accepted or not.
	participant := &models.Participant{
		Name:       proof.Name,
		NationalID: proof.NationalID,
		Phone:      proof.Phone,
		Email:      proof.Email,
	}
	if err := s.repo.CreateParticipant(ctx, participant); err != nil {
		monitoring.PaymentSubmissions.WithLabelValues("error").Inc()
		return nil, models.Verdict{}, err
	}

	verdict := s.validateProof(ctx, proof)
	monitoring.ValidationConfidence.Observe(verdict.Confidence)

	accepted := verdict.Valid && verdict.Confidence >= s.threshold
	status := models.PaymentStatusRejected
	if accepted {
		status = models.PaymentStatusValidated
	}

	payment := &models.Payment{
		ParticipantID:    participant.ID,
		BankFrom:         proof.BankFrom,
		PaymentPhone:     proof.PaymentPhone,
		AmountPaid:       proof.AmountPaid,
		ReferenceSuffix:  proof.Reference,
		ScreenshotURL:    proof.ScreenshotURL,
		Status:           status,
		ValidationResult: verdict,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			monitoring.PaymentSubmissions.WithLabelValues("duplicate").Inc()
			return nil, verdict, ErrDuplicatePayment
		}
		monitoring.PaymentSubmissions.WithLabelValues("error").Inc()
		return nil, verdict, err
	}

	if !accepted {
		log.Printf("[tickets] payment rejected reference=%s confidence=%.2f details=%q", proof.Reference, verdict.Confidence, verdict.Details)
		monitoring.PaymentSubmissions.WithLabelValues("rejected").Inc()
		return nil, verdict, ErrValidationRejected
	}

	numbers, err := s.allocateTickets(ctx, participant, proof)
	if err != nil {
		monitoring.PaymentSubmissions.WithLabelValues("error").Inc()
		return nil, verdict, err
	}

	log.Printf("[tickets] allocated %d tickets reference=%s start=%d", len(numbers), proof.Reference, numbers[0])
	monitoring.PaymentSubmissions.WithLabelValues("accepted").Inc()
	monitoring.TicketsIssued.Add(float64(len(numbers)))

	// Dispatched after the caller-visible result is final; failures stay in
	// the notifier.
	go s.notifier.Notify(participationMessage(proof, numbers, verdict))

	return numbers, verdict, nil
}

// validateProof bounds the validator call. A timeout is a rejection, never a
// success.
func (s *TicketService) validateProof(ctx context.Context, proof PaymentProof) models.Verdict {
	ctx, cancel := context.WithTimeout(ctx, s.validationTimeout)
	defer cancel()

	done := make(chan models.Verdict, 1)
	go func() {
		done <- s.validator.Validate(ctx, proof.Image, ExpectedPayment{
			Amount:    proof.AmountPaid,
			Reference: proof.Reference,
			Bank:      proof.BankFrom,
			Phone:     proof.PaymentPhone,
		})
	}()

	select {
	case verdict := <-done:
		return verdict
	case <-ctx.Done():
		return models.Verdict{Details: "validation timed out"}
	}
}

func (s *TicketService) allocateTickets(ctx context.Context, participant *models.Participant, proof PaymentProof) ([]int, error) {
	var lastErr error
	for attempt := 0; attempt < allocationRetries; attempt++ {
		numbers, err := s.repo.AllocateTickets(ctx, participant, proof.Reference, proof.Quantity)
		if err == nil {
			return numbers, nil
		}
		if !errors.Is(err, repository.ErrDuplicateKey) {
			return nil, err
		}
		// A concurrent submission claimed part of the block; re-read the
		// counter and try again.
		lastErr = err
	}
	return nil, fmt.Errorf("ticket allocation failed after %d attempts: %w", allocationRetries, lastErr)
}

func (s *TicketService) CountPaidTickets(ctx context.Context) (int64, error) {
	return s.repo.CountPaidTickets(ctx)
}

func participationMessage(proof PaymentProof, numbers []int, verdict models.Verdict) string {
	formatted := make([]string, 0, len(numbers))
	for _, n := range numbers {
		formatted = append(formatted, fmt.Sprintf("%d", n))
	}

	return fmt.Sprintf(
		"🎫 *Nueva Participación*\n\n👤 %s\n🪪 %s\n📱 %s\n📧 %s\n\n💰 Bs. %s\n🏦 %s\n🔢 Ref: ...%s\n\n🎰 Números: %s\n✅ Confianza IA: %.0f%%",
		proof.Name, orNA(proof.NationalID), proof.Phone, orNA(proof.Email),
		proof.AmountPaid.StringFixed(2), orNA(proof.BankFrom), proof.Reference,
		strings.Join(formatted, ", "), verdict.Confidence*100,
	)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
