package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/autoracer/raffle-backend/internal/middleware"
	"github.com/autoracer/raffle-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeAdminRepo struct {
	payments []models.Payment
	raffle   *models.RaffleConfig
	saved    *models.RaffleConfig
}

func (r *fakeAdminRepo) HasValidatedPayment(ctx context.Context, reference string) (bool, error) {
	return false, nil
}

func (r *fakeAdminRepo) CreateParticipant(ctx context.Context, participant *models.Participant) error {
	return nil
}

func (r *fakeAdminRepo) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return nil
}

func (r *fakeAdminRepo) AllocateTickets(ctx context.Context, participant *models.Participant, reference string, quantity int) ([]int, error) {
	return nil, nil
}

func (r *fakeAdminRepo) CountPaidTickets(ctx context.Context) (int64, error) {
	return 0, nil
}

func (r *fakeAdminRepo) ListPayments(ctx context.Context) ([]models.Payment, error) {
	return r.payments, nil
}

func (r *fakeAdminRepo) GetRaffleConfig(ctx context.Context) (*models.RaffleConfig, error) {
	return r.raffle, nil
}

func (r *fakeAdminRepo) UpdateRaffleConfig(ctx context.Context, raffle *models.RaffleConfig) error {
	r.saved = raffle
	return nil
}

func adminRouter(repo *fakeAdminRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewAdminHandler(repo)
	r.POST("/admin/login", handler.Login)

	admin := r.Group("/admin")
	admin.Use(middleware.JWTAuthMiddleware())
	{
		admin.GET("/payments", handler.ListPayments)
		admin.GET("/raffle", handler.GetRaffle)
		admin.PUT("/raffle", handler.UpdateRaffle)
	}
	return r
}

func setAdminEnv(t *testing.T, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	t.Setenv("ADMIN_USERNAME", "operator")
	t.Setenv("ADMIN_PASSWORD_HASH", string(hash))
	t.Setenv("JWT_SECRET", "test-secret")
}

func loginToken(t *testing.T, r *gin.Engine, username, password string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	w := postJSON(r, "/admin/login", map[string]string{"username": username, "password": password})
	if w.Code != http.StatusOK {
		return w, ""
	}
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp.Token
}

func TestAdminLoginAndListPayments(t *testing.T) {
	setAdminEnv(t, "hunter2")
	repo := &fakeAdminRepo{payments: []models.Payment{{ReferenceSuffix: "1234", Status: models.PaymentStatusValidated}}}
	r := adminRouter(repo)

	w, token := loginToken(t, r, "operator", "hunter2")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodGet, "/admin/payments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	listResp := httptest.NewRecorder()
	r.ServeHTTP(listResp, req)

	require.Equal(t, http.StatusOK, listResp.Code)
	assert.Contains(t, listResp.Body.String(), "1234")
}

func TestAdminLoginBadCredentials(t *testing.T) {
	setAdminEnv(t, "hunter2")
	r := adminRouter(&fakeAdminRepo{})

	w, _ := loginToken(t, r, "operator", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = loginToken(t, r, "intruder", "hunter2")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminLoginNotConfigured(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "")
	t.Setenv("ADMIN_PASSWORD_HASH", "")
	r := adminRouter(&fakeAdminRepo{})

	w, _ := loginToken(t, r, "operator", "hunter2")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	setAdminEnv(t, "hunter2")
	r := adminRouter(&fakeAdminRepo{})

	req := httptest.NewRequest(http.MethodGet, "/admin/payments", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/payments", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminUpdateRaffle(t *testing.T) {
	setAdminEnv(t, "hunter2")
	drawDate := time.Date(2026, 12, 24, 20, 0, 0, 0, time.UTC)
	repo := &fakeAdminRepo{raffle: &models.RaffleConfig{Name: "AUTORACER", TicketPrice: decimal.NewFromInt(10), TotalTickets: 1000}}
	r := adminRouter(repo)

	_, token := loginToken(t, r, "operator", "hunter2")
	require.NotEmpty(t, token)

	body := map[string]any{
		"name":          "AUTORACER 2da Edición",
		"ticket_price":  25,
		"total_tickets": 2000,
		"draw_date":     drawDate.Format(time.RFC3339),
	}
	encoded, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPut, "/admin/raffle", bytes.NewReader(encoded))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, repo.saved)
	assert.Equal(t, "AUTORACER 2da Edición", repo.saved.Name)
	assert.Equal(t, 2000, repo.saved.TotalTickets)
	require.NotNil(t, repo.saved.DrawDate)
	assert.True(t, repo.saved.DrawDate.Equal(drawDate))
}
