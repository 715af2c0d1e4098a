package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/Next-Gen-Coders/limitless-server/pkg/db"
	"github.com/Next-Gen-Coders/limitless-server/pkg/errors"
	"github.com/Next-Gen-Coders/limitless-server/pkg/logger"
)

// Swap record statuses.
const (
	StatusPending    = "pending"
	StatusQuoteReady = "quote_ready"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusExpired    = "expired"
)

const (
	defaultMonitorInterval = 5 * time.Second
	defaultMonitorAttempts = 60
)

// FusionService quotes and tracks cross-chain swaps through the 1inch
// Fusion+ API. Without execution credentials it runs in quotes-only mode:
// quotes are stored and returned for client-side execution.
type FusionService struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	queries    *db.Queries
	logger     *logger.Logger
	quotesOnly bool

	monitorInterval time.Duration
	monitorAttempts int

	// onMonitorOutcome, when set, observes monitor terminations
	// (metrics hook). outcome is "completed", "failed" or "timeout".
	onMonitorOutcome func(outcome string)
}

// Option customizes a FusionService.
type Option func(*FusionService)

// WithQuotesOnly forces quotes-only mode.
func WithQuotesOnly(on bool) Option {
	return func(s *FusionService) { s.quotesOnly = on }
}

// WithMonitorPolicy overrides the polling interval and attempt cap.
func WithMonitorPolicy(interval time.Duration, attempts int) Option {
	return func(s *FusionService) {
		if interval > 0 {
			s.monitorInterval = interval
		}
		if attempts > 0 {
			s.monitorAttempts = attempts
		}
	}
}

// WithMonitorObserver installs a hook called when a monitor loop ends.
func WithMonitorObserver(fn func(outcome string)) Option {
	return func(s *FusionService) { s.onMonitorOutcome = fn }
}

// NewFusionService creates the service.
func NewFusionService(apiKey, baseURL string, queries *db.Queries, log *logger.Logger, opts ...Option) *FusionService {
	s := &FusionService{
		httpClient:      &http.Client{Timeout: 15 * time.Second},
		apiKey:          apiKey,
		baseURL:         baseURL,
		queries:         queries,
		logger:          log,
		quotesOnly:      true,
		monitorInterval: defaultMonitorInterval,
		monitorAttempts: defaultMonitorAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QuoteParams describe the swap to quote.
type QuoteParams struct {
	SrcChainID      int64
	DstChainID      int64
	SrcTokenAddress string
	DstTokenAddress string
	Amount          string
	WalletAddress   string
}

// GetQuote fetches a Fusion+ cross-chain quote.
func (s *FusionService) GetQuote(ctx context.Context, params QuoteParams) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("srcChain", fmt.Sprintf("%d", params.SrcChainID))
	query.Set("dstChain", fmt.Sprintf("%d", params.DstChainID))
	query.Set("srcTokenAddress", params.SrcTokenAddress)
	query.Set("dstTokenAddress", params.DstTokenAddress)
	query.Set("amount", params.Amount)
	query.Set("walletAddress", params.WalletAddress)
	query.Set("enableEstimate", "true")

	quote, err := s.apiGet(ctx, "/fusion-plus/quoter/v1.0/quote/receive", query)
	if err != nil {
		return nil, errors.NewInternalError("failed to fetch swap quote", err, nil)
	}
	return quote, nil
}

// Execute records a swap, fetches its quote and either hands the quote back
// for client-side signing (quotes-only mode) or submits the order and starts
// the background monitor.
func (s *FusionService) Execute(ctx context.Context, userID string, params QuoteParams, chatID, messageID string) (*db.SwapTransaction, error) {
	record, err := s.queries.CreateSwapTransaction(ctx, db.CreateSwapTransactionParams{
		ID:              uuid.NewString(),
		UserID:          userID,
		ChatID:          nullable(chatID),
		MessageID:       nullable(messageID),
		SrcChainID:      params.SrcChainID,
		DstChainID:      params.DstChainID,
		SrcTokenAddress: params.SrcTokenAddress,
		DstTokenAddress: params.DstTokenAddress,
		Amount:          params.Amount,
		WalletAddress:   params.WalletAddress,
		Status:          StatusPending,
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to record swap", err, nil)
	}

	quote, err := s.GetQuote(ctx, params)
	if err != nil {
		s.markFailed(context.WithoutCancel(ctx), record.ID, err)
		return nil, err
	}

	if s.quotesOnly {
		if err := s.queries.UpdateSwapTransactionOrder(ctx, db.UpdateSwapTransactionOrderParams{
			ID:     record.ID,
			Status: StatusQuoteReady,
			Quote:  nullable(string(quote)),
		}); err != nil {
			return nil, errors.NewInternalError("failed to store quote", err, nil)
		}
		s.logger.Info("swap quote ready for client-side execution", "swap_id", record.ID)
		return s.reload(ctx, record.ID)
	}

	orderHash, err := s.submitOrder(ctx, quote, params)
	if err != nil {
		s.markFailed(context.WithoutCancel(ctx), record.ID, err)
		return nil, errors.NewInternalError("failed to submit swap order", err, nil)
	}

	if err := s.queries.UpdateSwapTransactionOrder(ctx, db.UpdateSwapTransactionOrderParams{
		ID:        record.ID,
		Status:    StatusProcessing,
		OrderHash: nullable(orderHash),
		Quote:     nullable(string(quote)),
	}); err != nil {
		return nil, errors.NewInternalError("failed to store order", err, nil)
	}

	go s.MonitorOrder(context.WithoutCancel(ctx), orderHash)

	return s.reload(ctx, record.ID)
}

// GetStatus returns a swap record after an ownership check, refreshing the
// order state from 1inch when the swap is still in flight.
func (s *FusionService) GetStatus(ctx context.Context, userID, swapID string) (*db.SwapTransaction, error) {
	record, err := s.queries.GetSwapTransaction(ctx, swapID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("swap not found", map[string]interface{}{"swapId": swapID})
		}
		return nil, errors.NewInternalError("failed to load swap", err, nil)
	}
	if record.UserID != userID {
		return nil, errors.NewForbiddenError("swap belongs to another user", nil)
	}

	if record.Status == StatusProcessing && record.OrderHash.Valid {
		if status, err := s.fetchOrderStatus(ctx, record.OrderHash.String); err == nil {
			if mapped, terminal := mapOrderStatus(status); terminal {
				if err := s.queries.UpdateSwapTransactionStatus(ctx, record.ID, mapped, sql.NullString{}); err == nil {
					record.Status = mapped
				}
			}
		}
	}
	return record, nil
}

// ListUserSwaps returns the user's swap records, newest first.
func (s *FusionService) ListUserSwaps(ctx context.Context, userID string, limit, offset int64) ([]*db.SwapTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	swaps, err := s.queries.ListSwapTransactionsByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, errors.NewInternalError("failed to list swaps", err, nil)
	}
	return swaps, nil
}

// MonitorOrder polls the order status until it reaches a terminal state or
// the attempt cap is hit. The relayer identifies orders by hash, so the
// record is resolved the same way. It is run on its own goroutine.
func (s *FusionService) MonitorOrder(ctx context.Context, orderHash string) {
	record, err := s.queries.GetSwapTransactionByOrderHash(ctx, orderHash)
	if err != nil {
		s.logger.Error("no swap record for monitored order", "order_hash", orderHash, "error", err)
		return
	}
	swapID := record.ID

	ticker := time.NewTicker(s.monitorInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= s.monitorAttempts; attempt++ {
		select {
		case <-ctx.Done():
			s.logger.Warn("swap monitor cancelled", "swap_id", swapID)
			return
		case <-ticker.C:
		}

		status, err := s.fetchOrderStatus(ctx, orderHash)
		if err != nil {
			s.logger.Warn("swap status poll failed", "swap_id", swapID, "attempt", attempt, "error", err)
			continue
		}

		mapped, terminal := mapOrderStatus(status)
		if !terminal {
			continue
		}

		var details sql.NullString
		if mapped != StatusCompleted {
			details = nullable(fmt.Sprintf(`{"orderStatus":%q}`, status))
		}
		if err := s.queries.UpdateSwapTransactionStatus(ctx, swapID, mapped, details); err != nil {
			s.logger.Error("failed to finalize swap record", "swap_id", swapID, "error", err)
			return
		}
		s.logger.Info("swap finalized", "swap_id", swapID, "status", mapped, "attempts", attempt)
		s.observeMonitor(outcomeFor(mapped))
		return
	}

	s.logger.Warn("swap monitor gave up", "swap_id", swapID, "attempts", s.monitorAttempts)
	_ = s.queries.UpdateSwapTransactionStatus(ctx, swapID, StatusExpired,
		nullable(`{"reason":"monitor timeout"}`))
	s.observeMonitor("timeout")
}

func outcomeFor(status string) string {
	if status == StatusCompleted {
		return "completed"
	}
	return "failed"
}

// mapOrderStatus converts a 1inch order status to a record status; the
// second return reports whether it is terminal.
func mapOrderStatus(orderStatus string) (string, bool) {
	switch orderStatus {
	case "executed":
		return StatusCompleted, true
	case "expired":
		return StatusExpired, true
	case "cancelled", "refunded":
		return StatusFailed, true
	default:
		return StatusProcessing, false
	}
}

type orderStatusResponse struct {
	Status string `json:"status"`
}

func (s *FusionService) fetchOrderStatus(ctx context.Context, orderHash string) (string, error) {
	body, err := s.apiGet(ctx, "/fusion-plus/orders/v1.0/order/status/"+orderHash, nil)
	if err != nil {
		return "", err
	}
	var resp orderStatusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", pkgerrors.Wrap(err, "malformed order status")
	}
	return resp.Status, nil
}

type submitOrderResponse struct {
	OrderHash string `json:"orderHash"`
}

// submitOrder hands the quote to the relayer for execution through the
// user's stored delegation.
func (s *FusionService) submitOrder(ctx context.Context, quote json.RawMessage, params QuoteParams) (string, error) {
	payload := map[string]interface{}{
		"quote":         json.RawMessage(quote),
		"walletAddress": params.WalletAddress,
		"srcChain":      params.SrcChainID,
		"dstChain":      params.DstChainID,
	}
	body, err := s.apiPost(ctx, "/fusion-plus/relayer/v1.0/submit", payload)
	if err != nil {
		return "", err
	}
	var resp submitOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", pkgerrors.Wrap(err, "malformed submit response")
	}
	if resp.OrderHash == "" {
		return "", fmt.Errorf("relayer returned no order hash")
	}
	return resp.OrderHash, nil
}

func (s *FusionService) markFailed(ctx context.Context, swapID string, cause error) {
	details := nullable(fmt.Sprintf(`{"error":%q}`, cause.Error()))
	if err := s.queries.UpdateSwapTransactionStatus(ctx, swapID, StatusFailed, details); err != nil {
		s.logger.Error("failed to mark swap failed", "swap_id", swapID, "error", err)
	}
}

func (s *FusionService) reload(ctx context.Context, swapID string) (*db.SwapTransaction, error) {
	record, err := s.queries.GetSwapTransaction(ctx, swapID)
	if err != nil {
		return nil, errors.NewInternalError("failed to reload swap", err, nil)
	}
	return record, nil
}

func (s *FusionService) observeMonitor(outcome string) {
	if s.onMonitorOutcome != nil {
		s.onMonitorOutcome(outcome)
	}
}

func (s *FusionService) apiGet(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	u := s.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return s.doRequest(req)
}

func (s *FusionService) apiPost(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return s.doRequest(req)
}

func (s *FusionService) doRequest(req *http.Request) (json.RawMessage, error) {
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "request to 1inch failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read 1inch response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("1inch API error: status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
