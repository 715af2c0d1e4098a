package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Next-Gen-Coders/limitless-server/pkg/auth"
	"github.com/Next-Gen-Coders/limitless-server/pkg/db"
	"github.com/Next-Gen-Coders/limitless-server/pkg/errors"
	"github.com/Next-Gen-Coders/limitless-server/pkg/http/response"
	"github.com/Next-Gen-Coders/limitless-server/pkg/logger"
	"github.com/Next-Gen-Coders/limitless-server/pkg/swaps/service"
)

// SwapRequest is the payload for quote and execute endpoints.
type SwapRequest struct {
	SrcChainID      int64  `json:"srcChainId" validate:"required,gt=0"`
	DstChainID      int64  `json:"dstChainId" validate:"required,gt=0"`
	SrcTokenAddress string `json:"srcTokenAddress" validate:"required,eth_addr"`
	DstTokenAddress string `json:"dstTokenAddress" validate:"required,eth_addr"`
	Amount          string `json:"amount" validate:"required,number"`
	WalletAddress   string `json:"walletAddress" validate:"required,eth_addr"`
	ChatID          string `json:"chatId,omitempty"`
	MessageID       string `json:"messageId,omitempty"`
}

// QuoteResponse wraps a raw Fusion+ quote.
type QuoteResponse struct {
	Quote json.RawMessage `json:"quote"`
}

// SwapResponse is the JSON shape of a swap record.
type SwapResponse struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	SrcChainID      int64           `json:"srcChainId"`
	DstChainID      int64           `json:"dstChainId"`
	SrcTokenAddress string          `json:"srcTokenAddress"`
	DstTokenAddress string          `json:"dstTokenAddress"`
	Amount          string          `json:"amount"`
	WalletAddress   string          `json:"walletAddress"`
	Status          string          `json:"status"`
	OrderHash       *string         `json:"orderHash,omitempty"`
	Quote           json.RawMessage `json:"quote,omitempty"`
	ErrorDetails    json.RawMessage `json:"errorDetails,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Handler serves swap endpoints.
type Handler struct {
	service  *service.FusionService
	logger   *logger.Logger
	validate *validator.Validate
}

// NewHandler creates a swap handler.
func NewHandler(svc *service.FusionService, log *logger.Logger) *Handler {
	return &Handler{
		service:  svc,
		logger:   log,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the swap routes. The router is already behind the
// auth middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/quote", response.Middleware(h.Quote))
	r.Post("/execute", response.Middleware(h.Execute))
	r.Get("/status/{swapId}", response.Middleware(h.Status))
	r.Get("/user/swaps", response.Middleware(h.ListUserSwaps))
}

// Quote godoc
// @Summary Get a Fusion+ cross-chain swap quote
// @Tags swaps
// @Accept json
// @Produce json
// @Param request body SwapRequest true "Swap parameters"
// @Success 200 {object} QuoteResponse
// @Failure 400 {object} response.ErrorResponse "Validation error"
// @Router /swap/quote [post]
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) error {
	req, err := h.decodeSwapRequest(r)
	if err != nil {
		return err
	}
	quote, err := h.service.GetQuote(r.Context(), toQuoteParams(req))
	if err != nil {
		return err
	}
	response.WriteJSON(w, http.StatusOK, QuoteResponse{Quote: quote})
	return nil
}

// Execute godoc
// @Summary Execute a swap (or prepare its quote in quotes-only mode)
// @Tags swaps
// @Accept json
// @Produce json
// @Param request body SwapRequest true "Swap parameters"
// @Success 201 {object} SwapResponse
// @Failure 400 {object} response.ErrorResponse "Validation error"
// @Router /swap/execute [post]
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	req, err := h.decodeSwapRequest(r)
	if err != nil {
		return err
	}
	record, err := h.service.Execute(r.Context(), user.ID, toQuoteParams(req), req.ChatID, req.MessageID)
	if err != nil {
		return err
	}
	response.WriteJSON(w, http.StatusCreated, toSwapResponse(record))
	return nil
}

// Status godoc
// @Summary Get the status of a swap
// @Tags swaps
// @Produce json
// @Param swapId path string true "Swap ID"
// @Success 200 {object} SwapResponse
// @Failure 404 {object} response.ErrorResponse "Swap not found"
// @Router /swap/status/{swapId} [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	record, err := h.service.GetStatus(r.Context(), user.ID, chi.URLParam(r, "swapId"))
	if err != nil {
		return err
	}
	response.WriteJSON(w, http.StatusOK, toSwapResponse(record))
	return nil
}

// ListUserSwaps godoc
// @Summary List the caller's swaps
// @Tags swaps
// @Produce json
// @Param limit query integer false "Page size (default 20)"
// @Param offset query integer false "Page offset"
// @Success 200 {array} SwapResponse
// @Router /swap/user/swaps [get]
func (h *Handler) ListUserSwaps(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	limit := parseQueryInt(r, "limit", 20)
	offset := parseQueryInt(r, "offset", 0)

	swaps, err := h.service.ListUserSwaps(r.Context(), user.ID, limit, offset)
	if err != nil {
		return err
	}
	out := make([]SwapResponse, 0, len(swaps))
	for _, s := range swaps {
		out = append(out, toSwapResponse(s))
	}
	response.WriteJSON(w, http.StatusOK, out)
	return nil
}

func (h *Handler) decodeSwapRequest(r *http.Request) (*SwapRequest, error) {
	var req SwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.NewValidationError("invalid request body", map[string]interface{}{"error": err.Error()})
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, errors.NewValidationError("invalid swap parameters", map[string]interface{}{"error": err.Error()})
	}
	return &req, nil
}

func toQuoteParams(req *SwapRequest) service.QuoteParams {
	return service.QuoteParams{
		SrcChainID:      req.SrcChainID,
		DstChainID:      req.DstChainID,
		SrcTokenAddress: req.SrcTokenAddress,
		DstTokenAddress: req.DstTokenAddress,
		Amount:          req.Amount,
		WalletAddress:   req.WalletAddress,
	}
}

func toSwapResponse(s *db.SwapTransaction) SwapResponse {
	resp := SwapResponse{
		ID:              s.ID,
		UserID:          s.UserID,
		SrcChainID:      s.SrcChainID,
		DstChainID:      s.DstChainID,
		SrcTokenAddress: s.SrcTokenAddress,
		DstTokenAddress: s.DstTokenAddress,
		Amount:          s.Amount,
		WalletAddress:   s.WalletAddress,
		Status:          s.Status,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.OrderHash.Valid {
		resp.OrderHash = &s.OrderHash.String
	}
	if s.Quote.Valid {
		resp.Quote = json.RawMessage(s.Quote.String)
	}
	if s.ErrorDetails.Valid {
		resp.ErrorDetails = json.RawMessage(s.ErrorDetails.String)
	}
	return resp
}

func parseQueryInt(r *http.Request, key string, fallback int64) int64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
