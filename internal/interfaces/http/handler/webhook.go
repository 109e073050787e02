package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/cpq/backend/internal/application/ingest"
	"github.com/cpq/backend/internal/domain/shared"
	"github.com/cpq/backend/internal/domain/source"
	"github.com/cpq/backend/internal/interfaces/http/dto"
	"github.com/cpq/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// QuoteIngestor is the application service contract the webhook endpoints need
type QuoteIngestor interface {
	IngestCanonical(ctx context.Context, payload ingest.CanonicalOrderPayload) (*ingest.IngestResult, error)
	IngestFromSource(ctx context.Context, sourceOrderID int64) (*ingest.IngestResult, error)
}

// WebhookHandler handles quote acceptance webhooks from the CRM
type WebhookHandler struct {
	BaseHandler
	ingestor QuoteIngestor
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(ingestor QuoteIngestor) *WebhookHandler {
	return &WebhookHandler{
		ingestor: ingestor,
	}
}

// IngestResponse is the acknowledgement body for accepted quotes
type IngestResponse struct {
	Status     string `json:"status" example:"ok"`
	OrderID    string `json:"order_id" example:"550e8400-e29b-41d4-a716-446655440010"`
	ExternalID string `json:"external_id" example:"S00042"`
	Duplicate  bool   `json:"duplicate" example:"false"`
}

// SourceIngestRequest identifies a quote to pull from the source CRM
type SourceIngestRequest struct {
	ID int64 `json:"id" binding:"required,gt=0" example:"42"`
}

// QuoteAccepted handles a quote-accepted webhook carrying the full payload
func (h *WebhookHandler) QuoteAccepted(c *gin.Context) {
	var payload ingest.CanonicalOrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.bindingError(c, err)
		return
	}

	result, err := h.ingestor.IngestCanonical(c.Request.Context(), payload)
	if err != nil {
		h.handleIngestError(c, err)
		return
	}

	c.JSON(http.StatusOK, IngestResponse{
		Status:     "ok",
		OrderID:    result.OrderID.String(),
		ExternalID: result.ExternalID,
		Duplicate:  result.Duplicate,
	})
}

// QuoteAcceptedFromSource handles a thin webhook that only names the quote;
// the order is pulled from the source CRM before ingestion
func (h *WebhookHandler) QuoteAcceptedFromSource(c *gin.Context) {
	var req SourceIngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindingError(c, err)
		return
	}

	result, err := h.ingestor.IngestFromSource(c.Request.Context(), req.ID)
	if err != nil {
		h.handleIngestError(c, err)
		return
	}

	c.JSON(http.StatusOK, IngestResponse{
		Status:     "ok",
		OrderID:    result.OrderID.String(),
		ExternalID: result.ExternalID,
		Duplicate:  result.Duplicate,
	})
}

// bindingError maps gin binding failures to a validation error response
func (h *WebhookHandler) bindingError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		middleware.HandleValidationError(c, validationErrs)
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Invalid request body")
}

// handleIngestError maps ingestion failures to HTTP responses
func (h *WebhookHandler) handleIngestError(c *gin.Context, err error) {
	if errors.Is(err, source.ErrOrderNotFound) {
		h.NotFound(c, err.Error())
		return
	}

	var unavailable *source.UnavailableError
	if errors.As(err, &unavailable) {
		h.BadGateway(c, unavailable.Error())
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.ErrorWithCode(c, dto.NormalizeErrorCode(domainErr.Code), domainErr.Message)
		return
	}

	h.InternalError(c, "An unexpected error occurred")
}
