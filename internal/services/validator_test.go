package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExpected() ExpectedPayment {
	return ExpectedPayment{
		Amount:    decimal.NewFromInt(20),
		Reference: "1234",
		Bank:      "Banesco",
		Phone:     "+584141234567",
	}
}

func geminiServer(t *testing.T, handler http.HandlerFunc) *GeminiValidator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	validator := NewGeminiValidator("test-key")
	validator.baseURL = server.URL
	return validator
}

func geminiCandidateBody(verdictJSON string) []byte {
	body := map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]any{{"text": verdictJSON}},
			},
		}},
	}
	encoded, _ := json.Marshal(body)
	return encoded
}

func TestGeminiValidatorParsesVerdict(t *testing.T) {
	validator := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "generateContent")

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "1234")
		assert.NotNil(t, req.Contents[0].Parts[1].InlineData)

		w.Write(geminiCandidateBody(`{"valid":true,"confidence":0.85,"details":"todo coincide"}`))
	})

	verdict := validator.Validate(context.Background(), ProofImage{Data: []byte("img"), MimeType: "image/png"}, testExpected())
	assert.True(t, verdict.Valid)
	assert.InDelta(t, 0.85, verdict.Confidence, 0.001)
	assert.Equal(t, "todo coincide", verdict.Details)
}

func TestGeminiValidatorMalformedOutputIsProviderFailure(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"markdown fenced", "```json\n{\"valid\":true}\n```"},
		{"not json", "the payment looks fine"},
		{"confidence out of range", `{"valid":true,"confidence":3.5,"details":"x"}`},
		{"unknown fields", `{"valid":true,"confidence":0.9,"details":"x","extra":1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			validator := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write(geminiCandidateBody(tc.text))
			})

			verdict := validator.Validate(context.Background(), ProofImage{Data: []byte("img")}, testExpected())
			assert.False(t, verdict.Valid)
			assert.Zero(t, verdict.Confidence)
			assert.NotEmpty(t, verdict.Details)
		})
	}
}

func TestGeminiValidatorProviderErrorIsStructured(t *testing.T) {
	validator := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	verdict := validator.Validate(context.Background(), ProofImage{Data: []byte("img")}, testExpected())
	assert.False(t, verdict.Valid)
	assert.Zero(t, verdict.Confidence)
	assert.Contains(t, verdict.Details, "provider")
}

func TestGeminiValidatorTimeout(t *testing.T) {
	validator := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write(geminiCandidateBody(`{"valid":true,"confidence":0.9,"details":"x"}`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	verdict := validator.Validate(ctx, ProofImage{Data: []byte("img")}, testExpected())
	assert.False(t, verdict.Valid)
	assert.Equal(t, "validation timed out", verdict.Details)
}

func TestGeminiValidatorFetchesScreenshotURL(t *testing.T) {
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	t.Cleanup(imageServer.Close)

	validator := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "image/jpeg", req.Contents[0].Parts[1].InlineData.MimeType)
		w.Write(geminiCandidateBody(`{"valid":true,"confidence":0.8,"details":"ok"}`))
	})

	verdict := validator.Validate(context.Background(), ProofImage{URL: imageServer.URL + "/shot.jpg"}, testExpected())
	assert.True(t, verdict.Valid)
}

func TestGeminiValidatorNoImage(t *testing.T) {
	validator := NewGeminiValidator("test-key")

	verdict := validator.Validate(context.Background(), ProofImage{}, testExpected())
	assert.False(t, verdict.Valid)
	assert.Contains(t, verdict.Details, "no screenshot")
}

func TestStubValidatorApproves(t *testing.T) {
	validator := &StubValidator{}

	verdict := validator.Validate(context.Background(), ProofImage{}, testExpected())
	assert.True(t, verdict.Valid)
	assert.InDelta(t, 0.7, verdict.Confidence, 0.001)
	assert.NotEmpty(t, verdict.Details)
}
