package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/autoracer/raffle-backend/internal/models"
	"github.com/shopspring/decimal"
)

// ProofImage carries the payment screenshot, either inline or by URL.
type ProofImage struct {
	Data     []byte
	MimeType string
	URL      string
}

// ExpectedPayment is what the submitted form claims; the validator checks the
// screenshot against it.
type ExpectedPayment struct {
	Amount    decimal.Decimal
	Reference string
	Bank      string
	Phone     string
}

// ProofValidator never returns an error: provider failures, malformed model
// output and missing configuration all surface as a structured verdict so the
// workflow always has something to record.
type ProofValidator interface {
	Validate(ctx context.Context, image ProofImage, expected ExpectedPayment) models.Verdict
}

// StubValidator approves everything with medium confidence. It is the
// degraded mode used when no AI provider is configured.
type StubValidator struct{}

func NewStubValidator() *StubValidator {
	log.Println("Warning: GEMINI_API_KEY not set, payment proofs are auto-approved (degraded mode)")
	return &StubValidator{}
}

func (v *StubValidator) Validate(ctx context.Context, image ProofImage, expected ExpectedPayment) models.Verdict {
	return models.Verdict{
		Valid:      true,
		Confidence: 0.7,
		Details:    "Validación automática: verificador no configurado",
	}
}

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

type GeminiValidator struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewGeminiValidator(apiKey string) *GeminiValidator {
	return &GeminiValidator{
		apiKey:  apiKey,
		model:   "gemini-1.5-flash",
		baseURL: defaultGeminiBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		ResponseMimeType string `json:"response_mime_type"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (v *GeminiValidator) Validate(ctx context.Context, image ProofImage, expected ExpectedPayment) models.Verdict {
	verdict, err := v.validate(ctx, image, expected)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.Verdict{Details: "validation timed out"}
		}
		log.Printf("[validator] provider error: %v", err)
		return models.Verdict{Details: fmt.Sprintf("validation provider error: %v", err)}
	}
	return verdict
}

func (v *GeminiValidator) validate(ctx context.Context, image ProofImage, expected ExpectedPayment) (models.Verdict, error) {
	if len(image.Data) == 0 && image.URL != "" {
		data, mimeType, err := v.fetchImage(ctx, image.URL)
		if err != nil {
			return models.Verdict{}, err
		}
		image.Data = data
		if image.MimeType == "" {
			image.MimeType = mimeType
		}
	}
	if len(image.Data) == 0 {
		return models.Verdict{}, errors.New("no screenshot provided")
	}
	if image.MimeType == "" {
		image.MimeType = "image/jpeg"
	}

	prompt := fmt.Sprintf(
		"Analiza esta captura de un comprobante de pago móvil y responde únicamente con JSON "+
			`{"valid": bool, "confidence": number entre 0 y 1, "details": string}. `+
			"Verifica que el monto sea Bs. %s, que la referencia termine en %s, que el banco emisor sea %s "+
			"y que el teléfono sea %s. Marca valid=false si algún dato no coincide o la imagen no es un comprobante.",
		expected.Amount.StringFixed(2), expected.Reference, expected.Bank, expected.Phone,
	)

	reqBody := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: prompt},
				{InlineData: &geminiInlineData{
					MimeType: image.MimeType,
					Data:     base64.StdEncoding.EncodeToString(image.Data),
				}},
			},
		}},
	}
	reqBody.GenerationConfig.ResponseMimeType = "application/json"

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return models.Verdict{}, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", v.baseURL, v.model, v.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return models.Verdict{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(httpReq)
	if err != nil {
		return models.Verdict{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Verdict{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return models.Verdict{}, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.Verdict{}, fmt.Errorf("malformed provider response: %v", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return models.Verdict{}, errors.New("provider returned no candidates")
	}

	return decodeVerdict(parsed.Candidates[0].Content.Parts[0].Text)
}

// decodeVerdict enforces a strict schema on the model output. Anything that
// is not plain JSON with a confidence in [0,1] counts as a provider failure.
func decodeVerdict(text string) (models.Verdict, error) {
	var verdict models.Verdict
	decoder := json.NewDecoder(bytes.NewReader([]byte(text)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&verdict); err != nil {
		return models.Verdict{}, fmt.Errorf("malformed verdict: %v", err)
	}
	if verdict.Confidence < 0 || verdict.Confidence > 1 {
		return models.Verdict{}, fmt.Errorf("verdict confidence out of range: %v", verdict.Confidence)
	}
	return verdict, nil
}

func (v *GeminiValidator) fetchImage(ctx context.Context, url string) ([]byte, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := v.client.Do(httpReq)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("screenshot fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}
