package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Beki78/fetan-pay-sub004/internal/provider"
	"github.com/Beki78/fetan-pay-sub004/internal/repository"
	"github.com/Beki78/fetan-pay-sub004/internal/repository/mocks"
)

// stubAdapter - управляемый адаптер для тестов оркестратора
type stubAdapter struct {
	p       provider.Provider
	payload provider.Payload
	err     error
	calls   int
}

func (a *stubAdapter) Provider() provider.Provider { return a.p }

func (a *stubAdapter) Verify(_ context.Context, _ string, _ provider.Extra) (provider.Payload, error) {
	a.calls++
	return a.payload, a.err
}

// stubPublisher копит опубликованные события
type stubPublisher struct {
	events []VerificationEvent
	err    error
}

func (p *stubPublisher) PublishVerificationCompleted(_ context.Context, event VerificationEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func boolPtr(v bool) *bool { return &v }

func newTestService(t *testing.T, adapter provider.Adapter, merchantAccount string) (*Service, *mocks.TransactionRepository, *mocks.ClaimRepository, *stubPublisher) {
	t.Helper()

	registry := provider.NewRegistry()
	if adapter != nil {
		registry.Register(adapter)
	}

	transactions := mocks.NewTransactionRepository(t)
	claims := mocks.NewClaimRepository(t)
	publisher := &stubPublisher{}

	svc := NewService(zap.NewNop(), registry, transactions, claims, publisher, merchantAccount)
	return svc, transactions, claims, publisher
}

// echoUpsert настраивает Upsert отдавать сохранённую запись как есть
// ctx матчится через mock.Anything: персист идёт через производный
// WithoutCancel-контекст, а не через контекст вызывающего
func echoUpsert(transactions *mocks.TransactionRepository) {
	transactions.On("Upsert", mock.Anything, mock.AnythingOfType("repository.Transaction")).
		Return(func(_ context.Context, tx repository.Transaction) (repository.Transaction, error) {
			return tx, nil
		})
}

func TestVerifyFromInput_Verified(t *testing.T) {
	adapter := &stubAdapter{
		p: provider.CBE,
		payload: provider.Payload{
			Amount:          decimal.RequireFromString("100.00"),
			ReceiverAccount: "1****5444",
			Reference:       "FT25347NSD0432348645",
		},
	}
	svc, transactions, _, publisher := newTestService(t, adapter, "")
	echoUpsert(transactions)

	result, err := svc.VerifyFromInput(context.Background(), VerifyInput{
		QRURL:         "https://apps.cbe.com.et:100/?id=FT25347NSD0432348645",
		AccountSuffix: "12345",
	})
	require.NoError(t, err)

	tx := result.Transaction
	require.Equal(t, provider.CBE, tx.Provider)
	require.Equal(t, "FT25347NSD0432348645", tx.Reference)
	require.Equal(t, repository.StatusVerified, tx.Status)
	require.NotNil(t, tx.VerifiedAt, "VerifiedAt выставляется при переходе в VERIFIED")
	require.NotNil(t, tx.Payload)
	require.Empty(t, tx.ErrorMessage)

	require.Len(t, publisher.events, 1)
	require.Equal(t, "VERIFIED", publisher.events[0].Status)
}

func TestVerifyFromInput_ExplicitFailure(t *testing.T) {
	adapter := &stubAdapter{
		p: provider.Awash,
		payload: provider.Payload{
			Success: boolPtr(false),
		},
	}
	svc, transactions, _, publisher := newTestService(t, adapter, "")
	echoUpsert(transactions)

	result, err := svc.VerifyFromInput(context.Background(), VerifyInput{
		QRURL:        "https://awashpay.example/receipt?ref=AW1",
		ProviderHint: provider.Awash,
	})
	require.NoError(t, err)
	require.Equal(t, repository.StatusFailed, result.Transaction.Status)
	require.Equal(t, "provider reported unsuccessful transaction", result.Transaction.ErrorMessage)
	require.Nil(t, result.Transaction.VerifiedAt)

	require.Len(t, publisher.events, 1)
	require.Equal(t, "FAILED", publisher.events[0].Status)
}

func TestVerifyFromInput_ProviderErrorPersistsFailed(t *testing.T) {
	adapter := &stubAdapter{
		p:   provider.Telebirr,
		err: provider.ErrProviderUnavailable,
	}
	svc, transactions, _, _ := newTestService(t, adapter, "")
	echoUpsert(transactions)

	result, err := svc.VerifyFromInput(context.Background(), VerifyInput{
		QRURL: "https://transactioninfo.ethiotelecom.et/receipt?receipt=TB1",
	})
	require.NoError(t, err, "сбой провайдера - это зафиксированный исход, а не ошибка вызова")
	require.Equal(t, repository.StatusFailed, result.Transaction.Status)
	require.Contains(t, result.Transaction.ErrorMessage, "provider endpoint unavailable")
}

func TestVerifyFromInput_ValidationErrorsNotPersisted(t *testing.T) {
	t.Run("extraction failure", func(t *testing.T) {
		svc, transactions, _, _ := newTestService(t, nil, "")

		_, err := svc.VerifyFromInput(context.Background(), VerifyInput{QRURL: "no-scheme"})
		require.ErrorIs(t, err, provider.ErrInvalidInput)
		transactions.AssertNotCalled(t, "Upsert")
	})

	t.Run("adapter validation failure", func(t *testing.T) {
		adapter := &stubAdapter{
			p:   provider.CBE,
			err: provider.ErrAccountSuffixRequired,
		}
		svc, transactions, _, _ := newTestService(t, adapter, "")

		_, err := svc.VerifyFromInput(context.Background(), VerifyInput{
			QRURL: "https://apps.cbe.com.et:100/?id=FT1",
		})
		require.ErrorIs(t, err, provider.ErrAccountSuffixRequired)
		transactions.AssertNotCalled(t, "Upsert")
	})

	t.Run("unknown provider", func(t *testing.T) {
		svc, transactions, _, _ := newTestService(t, nil, "")

		_, err := svc.VerifyFromInput(context.Background(), VerifyInput{
			QRURL:        "https://pay.example/?ref=R1",
			ProviderHint: provider.Dashen,
		})
		require.ErrorIs(t, err, provider.ErrUnknownProvider)
		transactions.AssertNotCalled(t, "Upsert")
	})
}

func TestVerifyFromInput_PersistErrorPropagates(t *testing.T) {
	adapter := &stubAdapter{
		p:       provider.Dashen,
		payload: provider.Payload{Amount: decimal.RequireFromString("10")},
	}
	svc, transactions, _, publisher := newTestService(t, adapter, "")

	storeErr := errors.New("connection refused")
	transactions.On("Upsert", mock.Anything, mock.AnythingOfType("repository.Transaction")).
		Return(repository.Transaction{}, storeErr)

	_, err := svc.VerifyFromInput(context.Background(), VerifyInput{
		QRURL: "https://receipt.dashensuperapp.com/receipt?ref=DSH1",
	})
	require.ErrorIs(t, err, storeErr)
	require.Empty(t, publisher.events, "несохранённый исход не публикуется")
}

func TestVerifyFromInput_PublishFailureIsBestEffort(t *testing.T) {
	adapter := &stubAdapter{
		p:       provider.BOA,
		payload: provider.Payload{Amount: decimal.RequireFromString("55.50")},
	}
	svc, transactions, _, publisher := newTestService(t, adapter, "")
	echoUpsert(transactions)
	publisher.err = errors.New("broker down")

	result, err := svc.VerifyFromInput(context.Background(), VerifyInput{
		QRURL: "https://cs.bankofabyssinia.com/slip/?tx=FT9",
	})
	require.NoError(t, err, "сбой публикации не ломает сохранённый результат")
	require.Equal(t, repository.StatusVerified, result.Transaction.Status)
}

func TestListTransactions_PaginationValidated(t *testing.T) {
	svc, transactions, claims, _ := newTestService(t, nil, "")

	_, _, err := svc.ListTransactions(context.Background(), repository.TransactionFilter{}, 0, 20)
	require.ErrorIs(t, err, ErrInvalidPagination)

	_, _, err = svc.ListClaims(context.Background(), repository.ClaimFilter{}, 1, 0)
	require.ErrorIs(t, err, ErrInvalidPagination)

	transactions.AssertNotCalled(t, "List")
	claims.AssertNotCalled(t, "List")
}

func TestListTransactions_DelegatesToRepository(t *testing.T) {
	svc, transactions, _, _ := newTestService(t, nil, "")

	filter := repository.TransactionFilter{Status: repository.StatusVerified}
	expected := []repository.Transaction{{Provider: provider.CBE, Reference: "FT1"}}
	transactions.On("List", mock.Anything, filter, 2, 10).Return(expected, 42, nil)

	got, total, err := svc.ListTransactions(context.Background(), filter, 2, 10)
	require.NoError(t, err)
	require.Equal(t, expected, got)
	require.Equal(t, 42, total)
}
