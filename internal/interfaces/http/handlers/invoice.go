// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/pouchprint-backend/internal/domain/order"
	"github.com/your-org/pouchprint-backend/internal/pkg/pdf"
)

// OrderReader loads orders for invoicing
type OrderReader interface {
	GetOrder(ctx context.Context, id uint) (*order.Order, error)
	GetUserOrder(ctx context.Context, userID, orderID uint) (*order.Order, error)
}

// InvoiceRenderer builds GST invoices
type InvoiceRenderer interface {
	BuildInvoiceData(o *order.Order) pdf.InvoiceData
	GenerateInvoice(o *order.Order) (*bytes.Buffer, error)
}

// InvoiceHandler handles invoice-related endpoints
type InvoiceHandler struct {
	orderService OrderReader
	pdfService   InvoiceRenderer
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(orders OrderReader, invoices InvoiceRenderer) *InvoiceHandler {
	return &InvoiceHandler{
		orderService: orders,
		pdfService:   invoices,
	}
}

// GenerateInvoice handles GET /orders/:id/invoice
func (h *InvoiceHandler) GenerateInvoice(c *gin.Context) {
	o, ok := h.customerOrder(c)
	if !ok {
		return
	}
	h.sendPDF(c, o)
}

// GetInvoiceData handles GET /orders/:id/invoice/data (for frontend preview)
func (h *InvoiceHandler) GetInvoiceData(c *gin.Context) {
	o, ok := h.customerOrder(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invoice data retrieved successfully",
		"data":    h.pdfService.BuildInvoiceData(o),
	})
}

// AdminGenerateInvoice handles GET /admin/orders/:id/invoice
func (h *InvoiceHandler) AdminGenerateInvoice(c *gin.Context) {
	orderID, ok := parseID(c, "id", "order ID")
	if !ok {
		return
	}

	o, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err, "Failed to retrieve order")
		return
	}
	h.sendPDF(c, o)
}

// customerOrder loads the caller's own order; others' orders read as not found
func (h *InvoiceHandler) customerOrder(c *gin.Context) (*order.Order, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return nil, false
	}
	orderID, ok := parseID(c, "id", "order ID")
	if !ok {
		return nil, false
	}

	o, err := h.orderService.GetUserOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, err, "Failed to retrieve order")
		return nil, false
	}
	return o, true
}

func (h *InvoiceHandler) sendPDF(c *gin.Context, o *order.Order) {
	pdfBuffer, err := h.pdfService.GenerateInvoice(o)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate invoice",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", o.OrderNumber))
	c.Data(http.StatusOK, "application/pdf", pdfBuffer.Bytes())
}
