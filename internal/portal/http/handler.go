// Package http provides the customer-facing portal HTTP handlers and middleware.
package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/flowtrade/portal/internal/httputil"
	portalDomain "github.com/flowtrade/portal/internal/portal/domain"
	"github.com/flowtrade/portal/internal/portal/http/dto"
	portalUseCase "github.com/flowtrade/portal/internal/portal/usecase"
	customValidation "github.com/flowtrade/portal/internal/validation"
)

// Byte limits matching the portal_access_logs columns. Request ids and user agents come from
// client headers, so they are cut to fit before they reach a batch insert.
const (
	maxRequestIDLength = 64
	maxIPAddressLength = 45
	maxUserAgentLength = 512
)

// PortalHandler handles token-scoped portal requests. Every route carries the bearer token
// as the :token path parameter; authorization is entirely the token's.
type PortalHandler struct {
	portalUseCase portalUseCase.PortalUseCase
	logger        *slog.Logger
}

// NewPortalHandler creates a new portal handler with required dependencies.
func NewPortalHandler(portalUseCase portalUseCase.PortalUseCase, logger *slog.Logger) *PortalHandler {
	return &PortalHandler{
		portalUseCase: portalUseCase,
		logger:        logger,
	}
}

// RegisterRoutes mounts the portal routes on group.
func (h *PortalHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/validate/:token", h.ValidateTokenHandler)

	group.GET("/quotes/:token", h.GetQuoteHandler)
	group.GET("/quotes/:token/pdf", h.QuotePDFHandler)
	group.POST("/quotes/:token/accept", h.AcceptQuoteHandler)
	group.POST("/quotes/:token/decline", h.DeclineQuoteHandler)

	group.GET("/invoices/:token", h.GetInvoiceHandler)
	group.GET("/invoices/:token/pdf", h.InvoicePDFHandler)
	group.POST("/invoices/:token/pay", h.InitiatePaymentHandler)
}

// accessContext captures who is behind the request for the access log.
func accessContext(c *gin.Context) portalDomain.AccessContext {
	return portalDomain.AccessContext{
		RequestID: clampText(requestid.Get(c), maxRequestIDLength),
		IPAddress: clampText(c.ClientIP(), maxIPAddressLength),
		UserAgent: clampText(c.Request.UserAgent(), maxUserAgentLength),
	}
}

// clampText drops invalid UTF-8 from value and truncates it to at most maxBytes without
// splitting a rune.
func clampText(value string, maxBytes int) string {
	value = strings.ToValidUTF8(value, "")
	if len(value) <= maxBytes {
		return value
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}

// ValidateTokenHandler reports whether a token of any type is usable.
// GET /portal/validate/:token
// Returns 200 OK with the token type, resource and expiry.
func (h *PortalHandler) ValidateTokenHandler(c *gin.Context) {
	validation, err := h.portalUseCase.ValidateToken(c.Request.Context(), c.Param("token"), accessContext(c))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTokenValidationToResponse(validation))
}

// GetQuoteHandler returns the quote a quote token points at.
// GET /portal/quotes/:token
func (h *PortalHandler) GetQuoteHandler(c *gin.Context) {
	view, err := h.portalUseCase.GetQuote(c.Request.Context(), c.Param("token"), accessContext(c))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapQuoteViewToResponse(view))
}

// GetInvoiceHandler returns the invoice an invoice token points at.
// GET /portal/invoices/:token
func (h *PortalHandler) GetInvoiceHandler(c *gin.Context) {
	view, err := h.portalUseCase.GetInvoice(c.Request.Context(), c.Param("token"), accessContext(c))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapInvoiceViewToResponse(view))
}

// QuotePDFHandler redirects to the rendered quote PDF.
// GET /portal/quotes/:token/pdf
func (h *PortalHandler) QuotePDFHandler(c *gin.Context) {
	h.redirectToDocument(c, portalDomain.TokenTypeQuote)
}

// InvoicePDFHandler redirects to the rendered invoice PDF.
// GET /portal/invoices/:token/pdf
func (h *PortalHandler) InvoicePDFHandler(c *gin.Context) {
	h.redirectToDocument(c, portalDomain.TokenTypeInvoice)
}

func (h *PortalHandler) redirectToDocument(c *gin.Context, kind portalDomain.TokenType) {
	location, err := h.portalUseCase.DocumentURL(c.Request.Context(), c.Param("token"), kind, accessContext(c))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Redirect(http.StatusFound, location)
}

// InitiatePaymentHandler starts a payment for a payable invoice.
// POST /portal/invoices/:token/pay
// Returns 202 Accepted; the payment provider completes the payment asynchronously.
func (h *PortalHandler) InitiatePaymentHandler(c *gin.Context) {
	payment, err := h.portalUseCase.InitiatePayment(c.Request.Context(), c.Param("token"), accessContext(c))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, dto.MapPaymentInitiationToResponse(payment))
}

// AcceptQuoteHandler accepts a sent quote.
// POST /portal/quotes/:token/accept
func (h *PortalHandler) AcceptQuoteHandler(c *gin.Context) {
	decision, err := h.portalUseCase.AcceptQuote(c.Request.Context(), c.Param("token"), accessContext(c))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapQuoteDecisionToResponse(decision))
}

// DeclineQuoteHandler declines a sent quote. The JSON body is optional; when present it may
// carry a reason.
// POST /portal/quotes/:token/decline
func (h *PortalHandler) DeclineQuoteHandler(c *gin.Context) {
	var req dto.DeclineQuoteRequest

	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	decision, err := h.portalUseCase.DeclineQuote(
		c.Request.Context(),
		c.Param("token"),
		req.ToInput(),
		accessContext(c),
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapQuoteDecisionToResponse(decision))
}
