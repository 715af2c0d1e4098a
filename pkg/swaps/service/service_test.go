package service

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Next-Gen-Coders/limitless-server/pkg/db"
	"github.com/Next-Gen-Coders/limitless-server/pkg/errors"
	"github.com/Next-Gen-Coders/limitless-server/pkg/logger"
)

func setupSwapTest(t *testing.T, handler http.HandlerFunc, opts ...Option) (*FusionService, *db.Queries, *db.User) {
	t.Helper()
	database, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database))
	queries := db.New(database)

	user, err := queries.CreateUser(context.Background(), db.CreateUserParams{
		ID:      uuid.NewString(),
		PrivyID: "did:privy:test",
	})
	require.NoError(t, err)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := NewFusionService("key", server.URL, queries, logger.NewNop(), opts...)
	return svc, queries, user
}

func testQuoteParams() QuoteParams {
	return QuoteParams{
		SrcChainID:      1,
		DstChainID:      137,
		SrcTokenAddress: "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee",
		DstTokenAddress: "0x3c499c542cef5e3811e1192ce70d8cc03d5c3359",
		Amount:          "1000000000000000000",
		WalletAddress:   "0x1111111111111111111111111111111111111111",
	}
}

func TestExecuteQuotesOnlyStoresQuote(t *testing.T) {
	svc, queries, user := setupSwapTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fusion-plus/quoter/v1.0/quote/receive", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("srcChain"))
		assert.Equal(t, "137", r.URL.Query().Get("dstChain"))
		w.Write([]byte(`{"dstTokenAmount":"2950000000"}`))
	}, WithQuotesOnly(true))

	record, err := svc.Execute(context.Background(), user.ID, testQuoteParams(), "", "")
	require.NoError(t, err)

	assert.Equal(t, StatusQuoteReady, record.Status)
	assert.Contains(t, record.Quote.String, "2950000000")
	assert.False(t, record.OrderHash.Valid, "no order is placed in quotes-only mode")

	stored, err := queries.GetSwapTransaction(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusQuoteReady, stored.Status)
}

func TestExecuteQuoteFailureMarksRecordFailed(t *testing.T) {
	svc, queries, user := setupSwapTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"upstream"}`))
	}, WithQuotesOnly(true))

	_, err := svc.Execute(context.Background(), user.ID, testQuoteParams(), "", "")
	require.Error(t, err)

	swaps, err := queries.ListSwapTransactionsByUser(context.Background(), user.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, swaps, 1)
	assert.Equal(t, StatusFailed, swaps[0].Status)
	assert.Contains(t, swaps[0].ErrorDetails.String, "status 502")
}

func TestExecuteSubmitsOrderAndMonitorCompletes(t *testing.T) {
	var polls atomic.Int32
	var outcome atomic.Value
	done := make(chan struct{})

	svc, queries, user := setupSwapTest(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fusion-plus/quoter/v1.0/quote/receive":
			w.Write([]byte(`{"dstTokenAmount":"2950000000"}`))
		case "/fusion-plus/relayer/v1.0/submit":
			w.Write([]byte(`{"orderHash":"0xorder123"}`))
		case "/fusion-plus/orders/v1.0/order/status/0xorder123":
			if polls.Add(1) < 2 {
				w.Write([]byte(`{"status":"pending"}`))
			} else {
				w.Write([]byte(`{"status":"executed"}`))
			}
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	},
		WithQuotesOnly(false),
		WithMonitorPolicy(5*time.Millisecond, 20),
		WithMonitorObserver(func(o string) {
			outcome.Store(o)
			close(done)
		}),
	)

	record, err := svc.Execute(context.Background(), user.ID, testQuoteParams(), "", "")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, record.Status)
	assert.Equal(t, "0xorder123", record.OrderHash.String)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not finish")
	}

	assert.Equal(t, "completed", outcome.Load())
	stored, err := queries.GetSwapTransaction(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
	assert.GreaterOrEqual(t, polls.Load(), int32(2))
}

func TestMonitorTimesOutAndExpiresRecord(t *testing.T) {
	done := make(chan struct{})
	svc, queries, user := setupSwapTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"pending"}`))
	},
		WithMonitorPolicy(time.Millisecond, 3),
		WithMonitorObserver(func(o string) {
			assert.Equal(t, "timeout", o)
			close(done)
		}),
	)

	record, err := svc.queries.CreateSwapTransaction(context.Background(), db.CreateSwapTransactionParams{
		ID:              uuid.NewString(),
		UserID:          user.ID,
		SrcChainID:      1,
		DstChainID:      137,
		SrcTokenAddress: "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee",
		DstTokenAddress: "0x3c499c542cef5e3811e1192ce70d8cc03d5c3359",
		Amount:          "1",
		WalletAddress:   "0x1111111111111111111111111111111111111111",
		Status:          StatusProcessing,
	})
	require.NoError(t, err)
	require.NoError(t, queries.UpdateSwapTransactionOrder(context.Background(), db.UpdateSwapTransactionOrderParams{
		ID:        record.ID,
		Status:    StatusProcessing,
		OrderHash: sql.NullString{String: "0xhash", Valid: true},
	}))

	svc.MonitorOrder(context.Background(), "0xhash")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor observer not called")
	}

	stored, err := queries.GetSwapTransaction(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, stored.Status)
}

func TestMonitorOrderUnknownHashIsNoOp(t *testing.T) {
	svc, _, _ := setupSwapTest(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no status poll expected for an untracked order")
	})

	svc.MonitorOrder(context.Background(), "0xunknown")
}

func TestGetStatusOwnershipCheck(t *testing.T) {
	svc, queries, user := setupSwapTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	other, err := queries.CreateUser(context.Background(), db.CreateUserParams{
		ID:      uuid.NewString(),
		PrivyID: "did:privy:other",
	})
	require.NoError(t, err)

	record, err := queries.CreateSwapTransaction(context.Background(), db.CreateSwapTransactionParams{
		ID:              uuid.NewString(),
		UserID:          other.ID,
		SrcChainID:      1,
		DstChainID:      1,
		SrcTokenAddress: "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee",
		DstTokenAddress: "0x6b175474e89094c44da98b954eedeac495271d0f",
		Amount:          "1",
		WalletAddress:   "0x1111111111111111111111111111111111111111",
		Status:          StatusPending,
	})
	require.NoError(t, err)

	_, err = svc.GetStatus(context.Background(), user.ID, record.ID)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ForbiddenError))

	_, err = svc.GetStatus(context.Background(), user.ID, uuid.NewString())
	assert.True(t, errors.IsType(err, errors.NotFoundError))
}

func TestMapOrderStatus(t *testing.T) {
	tests := []struct {
		in       string
		want     string
		terminal bool
	}{
		{"executed", StatusCompleted, true},
		{"expired", StatusExpired, true},
		{"cancelled", StatusFailed, true},
		{"refunded", StatusFailed, true},
		{"pending", StatusProcessing, false},
		{"", StatusProcessing, false},
	}
	for _, tt := range tests {
		got, terminal := mapOrderStatus(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.terminal, terminal, tt.in)
	}
}
