package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/tender-awards/internal/award"
	"github.com/nurpe/tender-awards/internal/http/middleware"
	"github.com/nurpe/tender-awards/internal/model"
	"github.com/nurpe/tender-awards/internal/service"
)

type Handler struct {
	awards *service.AwardService
	log    zerolog.Logger
}

func NewHandler(awards *service.AwardService, log zerolog.Logger) *Handler {
	return &Handler{awards: awards, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.POST("/tenders/:id/award/init", h.initializeAward)
	protected.POST("/tenders/:id/award/line-items/:lineItemId/distribute", h.distribute)
	protected.GET("/tenders/:id/award", h.getAward)
	protected.GET("/tenders/:id/award/scores", h.getScores)
	protected.GET("/tenders/:id/award/evaluation/export", h.exportEvaluation)
	protected.POST("/tenders/:id/award/finalize", h.finalize)
	protected.GET("/tenders/:id/purchase-orders/:orderId/pdf", h.purchaseOrderPDF)
}

type initAwardRequest struct {
	LineItems []string `json:"lineItems" binding:"required"`
}

type distributeRequest struct {
	Distribution []distributionEntry `json:"distribution" binding:"required"`
}

type distributionEntry struct {
	SupplierID string `json:"supplierId" binding:"required"`
	Quantity   int64  `json:"quantity"`
}

type allocationView struct {
	ID               string             `json:"id"`
	LineItemID       string             `json:"lineItemId"`
	RequiredQuantity int64              `json:"requiredQuantity"`
	Distribution     []distributionView `json:"distribution"`
	Locked           bool               `json:"locked"`
}

type distributionView struct {
	SupplierID string `json:"supplierId"`
	Quantity   int64  `json:"quantity"`
}

type purchaseOrderView struct {
	ID         string                  `json:"id"`
	SupplierID string                  `json:"supplierId"`
	PONumber   string                  `json:"poNumber"`
	Status     string                  `json:"status"`
	TotalPrice string                  `json:"totalPrice"`
	Lines      []purchaseOrderLineView `json:"lines"`
}

type purchaseOrderLineView struct {
	LineItemID  string `json:"lineItemId"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	LineTotal   string `json:"lineTotal"`
}

func (h *Handler) initializeAward(c *gin.Context) {
	principal, tenderID, ok := h.requestContext(c)
	if !ok {
		return
	}

	var req initAwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	lineItemIDs := make([]uuid.UUID, 0, len(req.LineItems))
	for _, raw := range req.LineItems {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid line item id"})
			return
		}
		lineItemIDs = append(lineItemIDs, id)
	}

	items, err := h.awards.InitializeAward(c.Request.Context(), service.InitializeAwardInput{
		TenderID:    tenderID,
		LineItemIDs: lineItemIDs,
		Principal:   principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "items": allocationViews(items)})
}

func (h *Handler) distribute(c *gin.Context) {
	principal, tenderID, ok := h.requestContext(c)
	if !ok {
		return
	}
	lineItemID, err := uuid.Parse(c.Param("lineItemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid line item id"})
		return
	}

	var req distributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	entries := make([]model.AllocationEntry, 0, len(req.Distribution))
	for _, e := range req.Distribution {
		supplierID, err := uuid.Parse(strings.TrimSpace(e.SupplierID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid supplier id"})
			return
		}
		entries = append(entries, model.AllocationEntry{SupplierID: supplierID, Quantity: e.Quantity})
	}

	allocation, err := h.awards.Distribute(c.Request.Context(), service.DistributeInput{
		TenderID:   tenderID,
		LineItemID: lineItemID,
		Entries:    entries,
		Principal:  principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "item": toAllocationView(allocation)})
}

func (h *Handler) getAward(c *gin.Context) {
	principal, tenderID, ok := h.requestContext(c)
	if !ok {
		return
	}
	items, err := h.awards.GetDetails(c.Request.Context(), tenderID, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "items": allocationViews(items)})
}

func (h *Handler) getScores(c *gin.Context) {
	principal, tenderID, ok := h.requestContext(c)
	if !ok {
		return
	}
	results, err := h.awards.Scores(c.Request.Context(), tenderID, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	scores := make([]gin.H, 0, len(results))
	for _, r := range results {
		scores = append(scores, gin.H{
			"offerId":    r.Offer.ID.String(),
			"supplierId": r.Offer.SupplierID.String(),
			"composite":  r.Composite,
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "scores": scores})
}

func (h *Handler) finalize(c *gin.Context) {
	principal, tenderID, ok := h.requestContext(c)
	if !ok {
		return
	}
	result, err := h.awards.Finalize(c.Request.Context(), tenderID, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response := gin.H{
		"success":        true,
		"purchaseOrders": purchaseOrderViews(result.PurchaseOrders),
		"supplierCount":  result.SupplierCount,
	}
	if len(result.Warnings) > 0 {
		response["warnings"] = result.Warnings
		response["message"] = "award finalized with notification failures"
	}
	c.JSON(http.StatusOK, response)
}

func (h *Handler) exportEvaluation(c *gin.Context) {
	principal, tenderID, ok := h.requestContext(c)
	if !ok {
		return
	}
	result, err := h.awards.EvaluationExport(c.Request.Context(), tenderID, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

func (h *Handler) purchaseOrderPDF(c *gin.Context) {
	principal, tenderID, ok := h.requestContext(c)
	if !ok {
		return
	}
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid purchase order id"})
		return
	}
	result, err := h.awards.PurchaseOrderPDF(c.Request.Context(), tenderID, orderID, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) requestContext(c *gin.Context) (model.Principal, uuid.UUID, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing principal"})
		return model.Principal{}, uuid.Nil, false
	}
	tenderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid tender id"})
		return model.Principal{}, uuid.Nil, false
	}
	return principal, tenderID, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, award.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, award.ErrConflict), errors.Is(err, award.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, award.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, award.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, award.ErrDataIntegrity):
		h.log.Error().Err(err).Msg("award data integrity violation")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("award operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
	}
}

func allocationViews(items []model.AwardAllocation) []allocationView {
	views := make([]allocationView, 0, len(items))
	for i := range items {
		views = append(views, toAllocationView(&items[i]))
	}
	return views
}

func toAllocationView(a *model.AwardAllocation) allocationView {
	distribution := make([]distributionView, 0, len(a.Entries))
	for _, e := range a.Entries {
		distribution = append(distribution, distributionView{
			SupplierID: e.SupplierID.String(),
			Quantity:   e.Quantity,
		})
	}
	return allocationView{
		ID:               a.ID.String(),
		LineItemID:       a.LineItemID.String(),
		RequiredQuantity: a.RequiredQuantity,
		Distribution:     distribution,
		Locked:           a.LockedAt != nil,
	}
}

func purchaseOrderViews(orders []model.PurchaseOrder) []purchaseOrderView {
	views := make([]purchaseOrderView, 0, len(orders))
	for _, po := range orders {
		lines := make([]purchaseOrderLineView, 0, len(po.Lines))
		for _, l := range po.Lines {
			lines = append(lines, purchaseOrderLineView{
				LineItemID:  l.LineItemID.String(),
				Description: l.Description,
				Unit:        l.Unit,
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice.String(),
				LineTotal:   l.LineTotal.String(),
			})
		}
		views = append(views, purchaseOrderView{
			ID:         po.ID.String(),
			SupplierID: po.SupplierID.String(),
			PONumber:   po.PONumber,
			Status:     string(po.Status),
			TotalPrice: po.TotalPrice.String(),
			Lines:      lines,
		})
	}
	return views
}
