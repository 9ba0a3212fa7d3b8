package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog/log"

	"example.com/gamestore/services/games/config"
	"example.com/gamestore/services/games/internal/tracing"
)

// Payment method names on the gateway wire format.
const (
	TypeCard     = "Cartao"
	TypePix      = "PIX"
	TypeBankSlip = "Boleto"
)

var (
	// ErrConfigMissing means the gateway base URL is not configured
	ErrConfigMissing = errors.New("payment gateway base URL is not configured")
	// ErrUnresolvedType means no payment method could be inferred from the request
	ErrUnresolvedType = errors.New("payment type could not be resolved")
)

// RejectedError is returned when the gateway declines a transaction
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("payment rejected by gateway: status %d: %s", e.StatusCode, e.Body)
}

// CardDetails carries card payment data
type CardDetails struct {
	Number     string `json:"numero"`
	Holder     string `json:"titular"`
	Expiration string `json:"validade"`
	CVV        string `json:"cvv"`
}

// PixDetails carries PIX payment data
type PixDetails struct {
	Key string `json:"chave"`
}

// BankSlipDetails carries bank-slip payment data
type BankSlipDetails struct {
	TaxID string `json:"cpf"`
}

// Details is the payment information attached to a purchase request
type Details struct {
	Type     string           `json:"tipoPagamento,omitempty"`
	Card     *CardDetails     `json:"dadosCartao,omitempty"`
	Pix      *PixDetails      `json:"dadosPIX,omitempty"`
	BankSlip *BankSlipDetails `json:"dadosBoleto,omitempty"`
	Notes    *string          `json:"observacoes,omitempty"`
}

// ResolveType picks the payment method: an explicit type wins, otherwise the
// first populated detail block in card > pix > bank-slip order.
func ResolveType(d Details) (string, error) {
	if d.Type != "" {
		return d.Type, nil
	}
	switch {
	case d.Card != nil:
		return TypeCard, nil
	case d.Pix != nil:
		return TypePix, nil
	case d.BankSlip != nil:
		return TypeBankSlip, nil
	}
	return "", ErrUnresolvedType
}

// transactionRequest is the gateway wire format
type transactionRequest struct {
	UsuarioID     uuid.UUID        `json:"usuarioId"`
	JogoID        uuid.UUID        `json:"jogoId"`
	Valor         float64          `json:"valor"`
	TipoPagamento string           `json:"tipoPagamento"`
	DadosCartao   *CardDetails     `json:"dadosCartao,omitempty"`
	DadosPIX      *PixDetails      `json:"dadosPIX,omitempty"`
	DadosBoleto   *BankSlipDetails `json:"dadosBoleto,omitempty"`
	Observacoes   *string          `json:"observacoes,omitempty"`
}

// Client calls the external transaction-authorization service
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     tracing.Tracer
}

// NewClient creates a new payment gateway client
func NewClient(cfg config.PaymentConfig, tracer tracing.Tracer) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tracer: tracer,
	}
}

// Authorize submits a transaction for authorization. A non-2xx answer from
// the gateway aborts the purchase with a RejectedError carrying the upstream
// status and body.
func (c *Client) Authorize(ctx context.Context, buyerID, gameID uuid.UUID, amount float64, details Details) error {
	if c.baseURL == "" {
		return ErrConfigMissing
	}

	paymentType, err := ResolveType(details)
	if err != nil {
		return err
	}

	payload := transactionRequest{
		UsuarioID:     buyerID,
		JogoID:        gameID,
		Valor:         amount,
		TipoPagamento: paymentType,
		DadosCartao:   details.Card,
		DadosPIX:      details.Pix,
		DadosBoleto:   details.BankSlip,
		Observacoes:   details.Notes,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction request: %w", err)
	}

	url := c.baseURL + "/api/Transacoes"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build transaction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	txn := newrelic.FromContext(ctx)
	seg := c.tracer.StartExternalSegment(txn, &newrelic.ExternalSegment{
		URL:       url,
		Procedure: "POST",
	})

	resp, err := c.httpClient.Do(req)
	seg.End()
	if err != nil {
		return fmt.Errorf("payment gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Warn().
			Int("status", resp.StatusCode).
			Str("buyer_id", buyerID.String()).
			Str("game_id", gameID.String()).
			Msg("payment gateway rejected transaction")
		return &RejectedError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	log.Info().
		Str("buyer_id", buyerID.String()).
		Str("game_id", gameID.String()).
		Str("payment_type", paymentType).
		Msg("payment authorized")

	return nil
}
