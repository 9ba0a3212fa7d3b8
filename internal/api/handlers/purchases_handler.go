package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/gamestore/services/games/internal/models"
	"example.com/gamestore/services/games/internal/payment"
	"example.com/gamestore/services/games/internal/services"
	"example.com/gamestore/services/games/internal/tracing"
)

// PurchasesHandler handles purchase HTTP requests
type PurchasesHandler struct {
	purchaseService *services.PurchaseService
	tracer          tracing.Tracer
}

// NewPurchasesHandler creates a new purchases handler
func NewPurchasesHandler(purchaseService *services.PurchaseService, tracer tracing.Tracer) *PurchasesHandler {
	return &PurchasesHandler{
		purchaseService: purchaseService,
		tracer:          tracer,
	}
}

// PurchaseRequest represents an incoming purchase payload
type PurchaseRequest struct {
	BuyerID  uuid.UUID                `json:"usuarioId" binding:"required"`
	GameID   uuid.UUID                `json:"jogoId" binding:"required"`
	Type     string                   `json:"tipoPagamento"`
	Card     *payment.CardDetails     `json:"dadosCartao"`
	Pix      *payment.PixDetails      `json:"dadosPIX"`
	BankSlip *payment.BankSlipDetails `json:"dadosBoleto"`
	Notes    string                   `json:"observacoes"`
}

// HandleCreatePurchase creates a purchase
func (h *PurchasesHandler) HandleCreatePurchase(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-create-purchase")
	defer h.tracer.EndTransaction(txn)

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Invalid purchase payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	h.tracer.AddAttribute(txn, "buyer_id", req.BuyerID.String())
	h.tracer.AddAttribute(txn, "game_id", req.GameID.String())

	var notes *string
	if req.Notes != "" {
		notes = &req.Notes
	}

	purchase, err := h.purchaseService.CreatePurchase(c.Request.Context(), services.CreatePurchaseRequest{
		BuyerID: req.BuyerID,
		GameID:  req.GameID,
		Notes:   req.Notes,
		Payment: payment.Details{
			Type:     req.Type,
			Card:     req.Card,
			Pix:      req.Pix,
			BankSlip: req.BankSlip,
			Notes:    notes,
		},
	})
	if err != nil {
		h.tracer.RecordError(txn, err)
		h.writePurchaseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, purchase)
}

// HandleGetPurchase returns a single purchase
func (h *PurchasesHandler) HandleGetPurchase(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-get-purchase")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purchase id"})
		return
	}

	purchase, err := h.purchaseService.GetByID(c.Request.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("purchase_id", id.String()).Msg("Failed to fetch purchase")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}
	if purchase == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "purchase not found"})
		return
	}

	c.JSON(http.StatusOK, purchase)
}

// HandleListPurchases lists purchases with limit/offset paging
func (h *PurchasesHandler) HandleListPurchases(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-list-purchases")
	defer h.tracer.EndTransaction(txn)

	limit := parseLimit(c.Query("limit"), 50)
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			offset = value
		}
	}

	purchases, err := h.purchaseService.List(c.Request.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list purchases")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	c.JSON(http.StatusOK, purchases)
}

// HandleListByBuyer lists a buyer's purchases
func (h *PurchasesHandler) HandleListByBuyer(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-list-purchases-by-buyer")
	defer h.tracer.EndTransaction(txn)

	buyerID, err := uuid.Parse(c.Param("usuarioId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	purchases, err := h.purchaseService.ListByBuyer(c.Request.Context(), buyerID)
	if err != nil {
		log.Error().Err(err).Str("buyer_id", buyerID.String()).Msg("Failed to list purchases by buyer")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	c.JSON(http.StatusOK, purchases)
}

// HandleListByGame lists a game's purchases
func (h *PurchasesHandler) HandleListByGame(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-list-purchases-by-game")
	defer h.tracer.EndTransaction(txn)

	gameID, err := uuid.Parse(c.Param("jogoId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game id"})
		return
	}

	purchases, err := h.purchaseService.ListByGame(c.Request.Context(), gameID)
	if err != nil {
		log.Error().Err(err).Str("game_id", gameID.String()).Msg("Failed to list purchases by game")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	c.JSON(http.StatusOK, purchases)
}

// HandleUpdateStatus changes the purchase status. The body is the integer
// status code.
func (h *PurchasesHandler) HandleUpdateStatus(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-update-purchase-status")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purchase id"})
		return
	}

	var status int
	if err := c.ShouldBindJSON(&status); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be an integer status code"})
		return
	}

	purchase, err := h.purchaseService.UpdateStatus(c.Request.Context(), id, models.PurchaseStatus(status))
	if err != nil {
		h.tracer.RecordError(txn, err)
		h.writePurchaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, purchase)
}

// HandleCancelPurchase cancels a purchase
func (h *PurchasesHandler) HandleCancelPurchase(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-cancel-purchase")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purchase id"})
		return
	}

	if err := h.purchaseService.CancelPurchase(c.Request.Context(), id); err != nil {
		h.tracer.RecordError(txn, err)
		h.writePurchaseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleActivationCode issues the purchase's activation code
func (h *PurchasesHandler) HandleActivationCode(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-activation-code")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purchase id"})
		return
	}

	code, err := h.purchaseService.GenerateActivationCode(c.Request.Context(), id)
	if err != nil {
		h.tracer.RecordError(txn, err)
		h.writePurchaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"codigoAtivacao": code})
}

// writePurchaseError maps workflow errors to HTTP status codes
func (h *PurchasesHandler) writePurchaseError(c *gin.Context, err error) {
	var transition *services.InvalidTransitionError

	switch {
	case errors.Is(err, services.ErrGameNotFound),
		errors.Is(err, services.ErrPurchaseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrOutOfStock),
		errors.Is(err, services.ErrAlreadyCancelled),
		errors.Is(err, services.ErrNotApproved),
		errors.Is(err, services.ErrActivationCodeIssued):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, payment.ErrUnresolvedType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("Purchase operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// RegisterRoutes registers the handler's routes
func (h *PurchasesHandler) RegisterRoutes(router *gin.Engine) {
	purchases := router.Group("/api/compras")
	{
		purchases.POST("", h.HandleCreatePurchase)
		purchases.GET("", h.HandleListPurchases)
		purchases.GET("/usuario/:usuarioId", h.HandleListByBuyer)
		purchases.GET("/jogo/:jogoId", h.HandleListByGame)
		purchases.GET("/:id", h.HandleGetPurchase)
		purchases.PUT("/:id/status", h.HandleUpdateStatus)
		purchases.POST("/:id/cancelar", h.HandleCancelPurchase)
		purchases.GET("/:id/codigo-ativacao", h.HandleActivationCode)
	}
}
