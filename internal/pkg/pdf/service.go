// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/shopspring/decimal"

	"github.com/your-org/pouchprint-backend/internal/config"
	"github.com/your-org/pouchprint-backend/internal/domain/order"
	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
)

// Service renders GST tax invoices
type Service struct {
	company config.CompanyConfig
	gstRate decimal.Decimal
	now     func() time.Time
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		company: cfg.Company,
		gstRate: cfg.Checkout.GSTRate,
		now:     time.Now,
	}
}

// InvoiceData is passed to the invoice template
type InvoiceData struct {
	InvoiceNumber string               `json:"invoice_number"`
	InvoiceDate   string               `json:"invoice_date"`
	Order         *order.Order         `json:"order"`
	Company       config.CompanyConfig `json:"company"`
	TaxableAmount decimal.Decimal      `json:"taxable_amount"`
	HalfRate      decimal.Decimal      `json:"half_rate"`
	CGST          decimal.Decimal      `json:"cgst"`
	SGST          decimal.Decimal      `json:"sgst"`
	Balance       bool                 `json:"balance_due"`
}

// BuildInvoiceData derives the invoice figures from a stored order. The CGST and
// SGST halves always add up to the stored tax amount.
func (s *Service) BuildInvoiceData(o *order.Order) InvoiceData {
	cgst := pricing.RoundMoney(o.TaxAmount.Div(decimal.NewFromInt(2)))
	return InvoiceData{
		InvoiceNumber: "INV-" + o.OrderNumber,
		InvoiceDate:   s.now().Format("02 Jan 2006"),
		Order:         o,
		Company:       s.company,
		TaxableAmount: o.SubtotalAmount.Sub(o.DiscountAmount),
		HalfRate:      s.gstRate.Div(decimal.NewFromInt(2)),
		CGST:          cgst,
		SGST:          o.TaxAmount.Sub(cgst),
		Balance:       o.AmountDue.IsPositive(),
	}
}

// RenderInvoiceHTML renders the invoice page
func (s *Service) RenderInvoiceHTML(o *order.Order) (string, error) {
	var buf bytes.Buffer
	if err := invoiceTmpl.Execute(&buf, s.BuildInvoiceData(o)); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// GenerateInvoice renders the invoice to PDF. Requires the wkhtmltopdf binary.
func (s *Service) GenerateInvoice(o *order.Order) (*bytes.Buffer, error) {
	htmlContent, err := s.RenderInvoiceHTML(o)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)
	pdfg.Title.Set("Invoice " + o.OrderNumber)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.FooterRight.Set("[page]/[topage]")
	page.FooterFontSize.Set(8)
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}
