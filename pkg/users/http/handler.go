package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Next-Gen-Coders/limitless-server/pkg/auth"
	"github.com/Next-Gen-Coders/limitless-server/pkg/errors"
	"github.com/Next-Gen-Coders/limitless-server/pkg/http/response"
	"github.com/Next-Gen-Coders/limitless-server/pkg/logger"
	"github.com/Next-Gen-Coders/limitless-server/pkg/users/service"
)

// Handler serves user and delegation endpoints.
type Handler struct {
	service  *service.UserService
	logger   *logger.Logger
	validate *validator.Validate
}

// NewHandler creates a user handler.
func NewHandler(svc *service.UserService, log *logger.Logger) *Handler {
	return &Handler{
		service:  svc,
		logger:   log,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the user routes. The router is already behind the
// auth middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sync", response.Middleware(h.Sync))
	r.Get("/users/{privyId}", response.Middleware(h.GetUser))
	r.Get("/users/{userId}/delegations", response.Middleware(h.ListUserDelegations))
	r.Post("/delegations", response.Middleware(h.StoreDelegation))
	r.Get("/delegations/{address}", response.Middleware(h.ListDelegationsByDelegator))
}

// Sync godoc
// @Summary Sync the authenticated user
// @Description Returns the caller's user row and stored delegations
// @Tags users
// @Produce json
// @Success 200 {object} SyncResponse
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Router /user/sync [post]
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	result, err := h.service.Sync(r.Context(), user.PrivyID)
	if err != nil {
		return err
	}
	response.WriteJSON(w, http.StatusOK, SyncResponse{
		User:        toUserResponse(result.User),
		Delegations: toDelegationResponses(result.Delegations),
	})
	return nil
}

// GetUser godoc
// @Summary Get a user by Privy ID
// @Tags users
// @Produce json
// @Param privyId path string true "Privy DID"
// @Success 200 {object} UserResponse
// @Failure 404 {object} response.ErrorResponse "User not found"
// @Router /user/users/{privyId} [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) error {
	privyID := chi.URLParam(r, "privyId")
	if privyID == "" {
		return errors.NewValidationError("privyId is required", nil)
	}
	user, err := h.service.GetByPrivyID(r.Context(), privyID)
	if err != nil {
		return err
	}
	response.WriteJSON(w, http.StatusOK, toUserResponse(user))
	return nil
}

// StoreDelegation godoc
// @Summary Store a signed EIP-7702 delegation
// @Tags users
// @Accept json
// @Produce json
// @Param request body StoreDelegationRequest true "Delegation payload"
// @Success 201 {object} DelegationResponse
// @Failure 400 {object} response.ErrorResponse "Validation error"
// @Failure 409 {object} response.ErrorResponse "Duplicate nonce"
// @Router /user/delegations [post]
func (h *Handler) StoreDelegation(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}

	var req StoreDelegationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errors.NewValidationError("invalid request body", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return errors.NewValidationError("invalid delegation payload", map[string]interface{}{
			"error": err.Error(),
		})
	}

	delegation, err := h.service.StoreDelegation(r.Context(), service.StoreDelegationParams{
		UserID:          user.ID,
		ChainID:         req.ChainID,
		Delegator:       req.Delegator,
		Delegatee:       req.Delegatee,
		Nonce:           req.Nonce,
		Authority:       req.Authority,
		Signature:       req.Signature,
		TransactionHash: req.TransactionHash,
	})
	if err != nil {
		return err
	}
	response.WriteJSON(w, http.StatusCreated, toDelegationResponse(delegation))
	return nil
}

// ListUserDelegations godoc
// @Summary List delegations for a user id
// @Tags users
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {array} DelegationResponse
// @Router /user/users/{userId}/delegations [get]
func (h *Handler) ListUserDelegations(w http.ResponseWriter, r *http.Request) error {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		return errors.NewValidationError("userId is required", nil)
	}
	delegations, err := h.service.ListDelegationsByUser(r.Context(), userID)
	if err != nil {
		return err
	}
	response.WriteJSON(w, http.StatusOK, toDelegationResponses(delegations))
	return nil
}

// ListDelegationsByDelegator godoc
// @Summary List delegations signed by an address
// @Tags users
// @Produce json
// @Param address path string true "Delegator address"
// @Param chainId query integer false "Restrict to one chain"
// @Success 200 {array} DelegationResponse
// @Failure 400 {object} response.ErrorResponse "Validation error"
// @Router /user/delegations/{address} [get]
func (h *Handler) ListDelegationsByDelegator(w http.ResponseWriter, r *http.Request) error {
	address := chi.URLParam(r, "address")
	if address == "" {
		return errors.NewValidationError("address is required", nil)
	}

	var chainID int64
	if raw := r.URL.Query().Get("chainId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return errors.NewValidationError("invalid chainId", map[string]interface{}{
				"chainId": raw,
			})
		}
		chainID = parsed
	}

	delegations, err := h.service.ListDelegationsByDelegator(r.Context(), address, chainID)
	if err != nil {
		return err
	}
	response.WriteJSON(w, http.StatusOK, toDelegationResponses(delegations))
	return nil
}
