package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"example.com/gamestore/services/games/config"
	"example.com/gamestore/services/games/internal/tracing"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	tracer, err := tracing.NewTracer(config.TracingConfig{})
	require.NoError(t, err)
	return NewClient(config.PaymentConfig{BaseURL: baseURL}, tracer)
}

func TestAuthorizeSendsTransactionRequest(t *testing.T) {
	buyerID := uuid.New()
	gameID := uuid.New()

	var received transactionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/Transacoes", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	err := client.Authorize(context.Background(), buyerID, gameID, 59.90, Details{
		Card: &CardDetails{Number: "4111111111111111", Holder: "JOHN DOE", Expiration: "12/30", CVV: "123"},
	})

	require.NoError(t, err)
	require.Equal(t, buyerID, received.UsuarioID)
	require.Equal(t, gameID, received.JogoID)
	require.Equal(t, 59.90, received.Valor)
	require.Equal(t, TypeCard, received.TipoPagamento)
	require.NotNil(t, received.DadosCartao)
	require.Nil(t, received.DadosPIX)
}

func TestAuthorizeRejectedByGateway(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte("card declined"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	err := client.Authorize(context.Background(), uuid.New(), uuid.New(), 10.0, Details{
		Pix: &PixDetails{Key: "buyer@example.com"},
	})

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, http.StatusPaymentRequired, rejected.StatusCode)
	require.Contains(t, rejected.Body, "card declined")
}

func TestAuthorizeWithoutBaseURL(t *testing.T) {
	client := newTestClient(t, "")

	err := client.Authorize(context.Background(), uuid.New(), uuid.New(), 10.0, Details{
		Pix: &PixDetails{Key: "buyer@example.com"},
	})

	require.ErrorIs(t, err, ErrConfigMissing)
}

func TestAuthorizeWithoutPaymentDetails(t *testing.T) {
	client := newTestClient(t, "http://localhost:9999")

	err := client.Authorize(context.Background(), uuid.New(), uuid.New(), 10.0, Details{})

	require.ErrorIs(t, err, ErrUnresolvedType)
}

func TestResolveType(t *testing.T) {
	tests := []struct {
		name    string
		details Details
		want    string
		wantErr error
	}{
		{
			name:    "explicit type wins",
			details: Details{Type: TypeBankSlip, Card: &CardDetails{}},
			want:    TypeBankSlip,
		},
		{
			name:    "card beats pix",
			details: Details{Card: &CardDetails{}, Pix: &PixDetails{}},
			want:    TypeCard,
		},
		{
			name:    "pix beats bank slip",
			details: Details{Pix: &PixDetails{}, BankSlip: &BankSlipDetails{}},
			want:    TypePix,
		},
		{
			name:    "bank slip alone",
			details: Details{BankSlip: &BankSlipDetails{}},
			want:    TypeBankSlip,
		},
		{
			name:    "nothing set",
			details: Details{},
			wantErr: ErrUnresolvedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveType(tt.details)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
