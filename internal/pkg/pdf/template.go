// internal/pkg/pdf/template.go
package pdf

import (
	"html/template"

	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
)

var invoiceTmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"inr":     pricing.FormatINR,
	"options": func(c pricing.Customization) string { return c.Label() },
	"inc":     func(i int) int { return i + 1 },
}).Parse(invoiceTemplate))

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Invoice {{.InvoiceNumber}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; font-size: 12px; }
.header { border-bottom: 2px solid #eee; padding-bottom: 16px; margin-bottom: 20px; overflow: hidden; }
.company { float: left; width: 55%; }
.meta { float: right; width: 40%; text-align: right; }
.title { font-size: 24px; font-weight: bold; color: #1f4e79; }
.addresses { overflow: hidden; margin-bottom: 20px; }
.addresses div { float: left; width: 48%; margin-right: 2%; }
.section-title { font-weight: bold; margin-bottom: 6px; color: #374151; }
table.items { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
table.items th, table.items td { border: 1px solid #ddd; padding: 6px; text-align: left; }
table.items th { background: #f8f9fa; }
.num { text-align: right; }
table.totals { float: right; width: 320px; border-collapse: collapse; }
table.totals td { padding: 5px; border-bottom: 1px solid #eee; }
.grand td { font-size: 14px; font-weight: bold; border-top: 2px solid #333; }
.footer { clear: both; margin-top: 40px; padding-top: 12px; border-top: 1px solid #eee; text-align: center; color: #666; font-size: 10px; }
</style>
</head>
<body>
<div class="header">
  <div class="company">
    <h2>{{.Company.Name}}</h2>
    <p>{{.Company.Address}}</p>
    <p>Phone: {{.Company.Phone}} | {{.Company.Email}}</p>
    {{with .Company.GSTIN}}<p>GSTIN: {{.}}</p>{{end}}
  </div>
  <div class="meta">
    <div class="title">TAX INVOICE</div>
    <p><strong>Invoice #:</strong> {{.InvoiceNumber}}</p>
    <p><strong>Date:</strong> {{.InvoiceDate}}</p>
    <p><strong>Order #:</strong> {{.Order.OrderNumber}}</p>
    <p><strong>Payment:</strong> {{.Order.PaymentStatus}}</p>
  </div>
</div>

<div class="addresses">
  <div>
    <div class="section-title">Bill To</div>
    {{with .Order.BillingAddress}}
    <p>{{.FirstName}} {{.LastName}}{{with .Company}}<br>{{.}}{{end}}<br>
    {{.AddressLine1}}{{with .AddressLine2}}<br>{{.}}{{end}}<br>
    {{.City}}, {{.State}} {{.PostalCode}}</p>
    {{with .GSTIN}}<p>GSTIN: {{.}}</p>{{end}}
    {{end}}
  </div>
  <div>
    <div class="section-title">Ship To</div>
    {{with .Order.ShippingAddress}}
    <p>{{.FirstName}} {{.LastName}}<br>
    {{.AddressLine1}}{{with .AddressLine2}}<br>{{.}}{{end}}<br>
    {{.City}}, {{.State}} {{.PostalCode}}</p>
    {{end}}
  </div>
</div>

<table class="items">
  <tr><th>#</th><th>Item</th><th>SKU</th><th class="num">Qty</th><th class="num">Unit Price</th><th class="num">Amount</th></tr>
  {{range $i, $it := .Order.Items}}
  <tr>
    <td>{{inc $i}}</td>
    <td>{{$it.Name}}{{with options $it.Customization}}<br><small>{{.}}</small>{{end}}</td>
    <td>{{$it.SKU}}</td>
    <td class="num">{{$it.Quantity}}</td>
    <td class="num">{{inr $it.UnitPrice}}</td>
    <td class="num">{{inr $it.LineTotal}}</td>
  </tr>
  {{end}}
</table>

<table class="totals">
  <tr><td>Subtotal</td><td class="num">{{inr .Order.SubtotalAmount}}</td></tr>
  {{if .Order.DiscountAmount.IsPositive}}<tr><td>Discount {{.Order.CouponCode}}</td><td class="num">-{{inr .Order.DiscountAmount}}</td></tr>{{end}}
  <tr><td>Taxable value</td><td class="num">{{inr .TaxableAmount}}</td></tr>
  <tr><td>CGST @ {{.HalfRate}}%</td><td class="num">{{inr .CGST}}</td></tr>
  <tr><td>SGST @ {{.HalfRate}}%</td><td class="num">{{inr .SGST}}</td></tr>
  <tr><td>Shipping ({{.Order.ShippingMethod}})</td><td class="num">{{inr .Order.ShippingAmount}}</td></tr>
  <tr class="grand"><td>Total</td><td class="num">{{inr .Order.TotalAmount}}</td></tr>
  <tr><td>Amount paid</td><td class="num">{{inr .Order.AmountPaid}}</td></tr>
  {{if .Balance}}<tr><td>Balance due</td><td class="num">{{inr .Order.AmountDue}}</td></tr>{{end}}
</table>

<div class="footer">
  <p>This is a computer generated invoice. {{.Company.Website}}</p>
</div>
</body>
</html>`
