package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/minjispace/web-pet/errors"
	"github.com/minjispace/web-pet/game"
)

// SessionHandler exposes the session service over HTTP
type SessionHandler struct {
	service *SessionService
	logger  zerolog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(service *SessionService, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		logger:  logger.With().Str("handler", "session").Logger(),
	}
}

// StatChangeRequest is the payload for POST /api/pet/stats.
// Points carries no `required` tag: zero is a legitimate no-op.
type StatChangeRequest struct {
	Stat   string `json:"stat" binding:"required"`
	Points int    `json:"points"`
}

// PurchaseRequest is the payload for POST /api/shop/purchase.
// Price carries no `required` tag: zero prices free items.
type PurchaseRequest struct {
	ItemID string `json:"item_id" binding:"required"`
	Price  int64  `json:"price"`
	Slot   string `json:"slot" binding:"required"`
}

// SessionStateResponse is the JSON view of the session state
type SessionStateResponse struct {
	AuthUser  *game.AuthUser    `json:"auth_user,omitempty"`
	Profile   *game.UserProfile `json:"profile,omitempty"`
	IsLoading bool              `json:"is_loading"`
	Error     string            `json:"error,omitempty"`
}

// PurchaseResponse is the JSON view of a purchase decision
type PurchaseResponse struct {
	Accepted       bool           `json:"accepted"`
	ItemID         string         `json:"item_id"`
	Slot           string         `json:"slot"`
	Cost           string         `json:"cost"`
	RemainingMoney string         `json:"remaining_money"`
	Items          game.Inventory `json:"items,omitempty"`
}

func stateResponse(st game.State) SessionStateResponse {
	return SessionStateResponse{
		AuthUser:  st.AuthUser,
		Profile:   st.LoadUser,
		IsLoading: st.IsLoading,
		Error:     st.Err,
	}
}

// Login handles POST /api/session/login
func (h *SessionHandler) Login(c *gin.Context) {
	if err := h.service.Login(c.Request.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Login failed")
		HandleAppError(c, err)
		return
	}
	OK(c, stateResponse(h.service.Snapshot()))
}

// Restore handles POST /api/session/restore
func (h *SessionHandler) Restore(c *gin.Context) {
	if err := h.service.RestoreSession(c.Request.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Session restore failed")
		HandleAppError(c, err)
		return
	}
	OK(c, stateResponse(h.service.Snapshot()))
}

// Logout handles POST /api/session/logout
func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Logout failed")
		HandleAppError(c, err)
		return
	}
	OK(c, stateResponse(h.service.Snapshot()))
}

// GetState handles GET /api/session
func (h *SessionHandler) GetState(c *gin.Context) {
	OK(c, stateResponse(h.service.Snapshot()))
}

// ChangeStat handles POST /api/pet/stats
func (h *SessionHandler) ChangeStat(c *gin.Context) {
	var req StatChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, errors.Wrap(err, errors.ErrInvalidRequest, "invalid stat change request"))
		return
	}

	stat := game.StatType(req.Stat)
	if !game.ValidStat(stat) {
		BadRequest(c, errors.New(errors.ErrInvalidRequest, "unknown stat: "+req.Stat))
		return
	}

	if err := h.service.HandleStatChange(c.Request.Context(), stat, req.Points); err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, stateResponse(h.service.Snapshot()))
}

// Purchase handles POST /api/shop/purchase
func (h *SessionHandler) Purchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, errors.Wrap(err, errors.ErrInvalidRequest, "invalid purchase request"))
		return
	}

	result, err := h.service.HandlePurchase(c.Request.Context(), req.ItemID, req.Price, game.Slot(req.Slot))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	resp := PurchaseResponse{
		Accepted:       result.Status == game.PurchaseAccepted,
		ItemID:         result.ItemID,
		Slot:           string(result.Slot),
		Cost:           result.Cost.String(),
		RemainingMoney: result.RemainingMoney.String(),
		Items:          result.Items,
	}
	// Insufficient funds is a decision, not a fault: 200 with accepted=false
	c.JSON(http.StatusOK, SuccessResponse[PurchaseResponse]{
		StatusCode: http.StatusOK,
		IsSuccess:  true,
		Data:       resp,
	})
}
