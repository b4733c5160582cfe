package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCBEAdapter_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("missing suffix fails before any network call", func(t *testing.T) {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))
		defer server.Close()

		adapter := NewCBEAdapter(zap.NewNop(), server.URL)

		_, err := adapter.Verify(ctx, "FT25347NSD0432348645", Extra{})
		require.ErrorIs(t, err, ErrAccountSuffixRequired)

		_, err = adapter.Verify(ctx, "FT25347NSD0432348645", Extra{AccountSuffix: "123"})
		require.ErrorIs(t, err, ErrInvalidAccountSuffix)

		require.Equal(t, 0, requests, "validation errors must not reach the network")
	})

	t.Run("successful receipt", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// CBE принимает склейку reference+suffix
			require.Equal(t, "FT25347NSD043234864512345", r.URL.Query().Get("id"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"payer": "ABEBE KEBEDE",
				"payerAccount": "1****1111",
				"receiver": "FETAN MERCHANT",
				"receiverAccount": "1****5444",
				"amount": "100.00",
				"date": "2026-08-30",
				"transaction_id": "FT25347NSD0432348645",
				"reason": "Transfer"
			}`))
		}))
		defer server.Close()

		adapter := NewCBEAdapter(zap.NewNop(), server.URL)

		payload, err := adapter.Verify(ctx, "FT25347NSD0432348645", Extra{AccountSuffix: "12345"})
		require.NoError(t, err)
		require.Nil(t, payload.Success, "CBE sends no explicit success flag")
		require.True(t, payload.Amount.Equal(decimal.RequireFromString("100.00")))
		require.Equal(t, "1****5444", payload.ReceiverAccount)
		require.Equal(t, "FT25347NSD0432348645", payload.Reference)
		require.NotEmpty(t, payload.Raw, "raw provider response kept for audit")
	})

	t.Run("not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		adapter := NewCBEAdapter(zap.NewNop(), server.URL)

		_, err := adapter.Verify(ctx, "FT0000", Extra{AccountSuffix: "12345"})
		require.ErrorIs(t, err, ErrReceiptNotFound)
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not json</html>"))
		}))
		defer server.Close()

		adapter := NewCBEAdapter(zap.NewNop(), server.URL)

		_, err := adapter.Verify(ctx, "FT0000", Extra{AccountSuffix: "12345"})
		require.ErrorIs(t, err, ErrMalformedReceipt)
	})
}

func TestTelebirrAdapter_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("completed receipt maps to explicit success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/receipt/TB12345678", r.URL.Path)
			w.Write([]byte(`{
				"receiptNo": "TB12345678",
				"payerName": "ALMAZ T",
				"creditedPartyName": "FETAN MERCHANT",
				"creditedPartyAccountNo": "2****7788",
				"totalPaidAmount": "1,250.50",
				"paymentDate": "2026-08-30 10:11:12",
				"transactionStatus": "Completed"
			}`))
		}))
		defer server.Close()

		adapter := NewTelebirrAdapter(zap.NewNop(), server.URL)

		payload, err := adapter.Verify(ctx, "TB12345678", Extra{})
		require.NoError(t, err)
		require.NotNil(t, payload.Success)
		require.True(t, *payload.Success)
		// Разделители тысяч вычищаются перед парсингом суммы
		require.True(t, payload.Amount.Equal(decimal.RequireFromString("1250.50")))
	})

	t.Run("non-completed status maps to explicit failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"receiptNo":"TB1","totalPaidAmount":"10","transactionStatus":"Reversed"}`))
		}))
		defer server.Close()

		adapter := NewTelebirrAdapter(zap.NewNop(), server.URL)

		payload, err := adapter.Verify(ctx, "TB1", Extra{})
		require.NoError(t, err)
		require.NotNil(t, payload.Success)
		require.False(t, *payload.Success)
	})
}

func TestAwashAdapter_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit success false passes through", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			w.Write([]byte(`{"success": false, "message": "transaction not settled", "data": {}}`))
		}))
		defer server.Close()

		adapter := NewAwashAdapter(zap.NewNop(), server.URL)

		payload, err := adapter.Verify(ctx, "AW1", Extra{})
		require.NoError(t, err)
		require.NotNil(t, payload.Success)
		require.False(t, *payload.Success)
	})

	t.Run("provider 5xx is a provider error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		adapter := NewAwashAdapter(zap.NewNop(), server.URL)

		_, err := adapter.Verify(ctx, "AW1", Extra{})
		require.ErrorIs(t, err, ErrProviderUnavailable)
	})
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	registry.Register(NewTelebirrAdapter(zap.NewNop(), ""))

	got, err := registry.Get(Telebirr)
	require.NoError(t, err)
	require.Equal(t, Telebirr, got.Provider())

	_, err = registry.Get(Dashen)
	require.ErrorIs(t, err, ErrUnknownProvider)
}
