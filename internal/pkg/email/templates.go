// internal/pkg/email/templates.go
package email

import (
	"bytes"
	"html/template"
	"time"

	"github.com/your-org/pouchprint-backend/internal/domain/checkout"
	"github.com/your-org/pouchprint-backend/internal/domain/order"
	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
)

type orderEmailData struct {
	SiteName     string
	SiteURL      string
	SupportMail  string
	Year         int
	Order        *order.Order
	CustomerName string
	OrderURL     string
	Partial      bool
}

var funcs = template.FuncMap{
	"inr": pricing.FormatINR,
	"options": func(c pricing.Customization) string {
		return c.Label()
	},
}

var orderConfirmationTmpl = template.Must(template.New("order_confirmation").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background-color: #1f4e79; color: white; padding: 20px; text-align: center; }
table { width: 100%; border-collapse: collapse; }
td, th { padding: 6px; border-bottom: 1px solid #ddd; text-align: left; }
.num { text-align: right; }
.footer { text-align: center; padding: 20px; color: #666; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
<div class="header"><h1>Thank you for your order</h1></div>
<p>Hi {{.CustomerName}},</p>
<p>Your order <strong>{{.Order.OrderNumber}}</strong> is confirmed and will move to production shortly.</p>
<table>
<tr><th>Product</th><th class="num">Qty</th><th class="num">Unit</th><th class="num">Total</th></tr>
{{range .Order.Items}}<tr><td>{{.Name}}{{with options .Customization}}<br><small>{{.}}</small>{{end}}</td><td class="num">{{.Quantity}}</td><td class="num">{{inr .UnitPrice}}</td><td class="num">{{inr .LineTotal}}</td></tr>
{{end}}</table>
<table>
<tr><td>Subtotal</td><td class="num">{{inr .Order.SubtotalAmount}}</td></tr>
{{if .Order.DiscountAmount.IsPositive}}<tr><td>Discount ({{.Order.CouponCode}})</td><td class="num">-{{inr .Order.DiscountAmount}}</td></tr>{{end}}
<tr><td>Shipping</td><td class="num">{{inr .Order.ShippingAmount}}</td></tr>
<tr><td>GST</td><td class="num">{{inr .Order.TaxAmount}}</td></tr>
<tr><td><strong>Total</strong></td><td class="num"><strong>{{inr .Order.TotalAmount}}</strong></td></tr>
<tr><td>Paid</td><td class="num">{{inr .Order.AmountPaid}}</td></tr>
</table>
{{if .Partial}}<p>A balance of <strong>{{inr .Order.AmountDue}}</strong> is due before dispatch.</p>{{end}}
<p><a href="{{.OrderURL}}">View your order</a></p>
<div class="footer">&copy; {{.Year}} {{.SiteName}} &middot; {{.SupportMail}}</div>
</div>
</body>
</html>`))

func (s *Service) templateData(o *order.Order) orderEmailData {
	name := o.ShippingAddress.FirstName
	if name == "" {
		name = o.Email
	}
	return orderEmailData{
		SiteName:     s.company.Name,
		SiteURL:      s.cfg.BaseURL,
		SupportMail:  s.company.Email,
		Year:         time.Now().Year(),
		Order:        o,
		CustomerName: name,
		OrderURL:     s.cfg.BaseURL + "/orders/" + o.OrderNumber,
		Partial:      o.PaymentMode == checkout.PaymentModePartial && !o.IsFullyPaid(),
	}
}

func renderOrderConfirmation(data orderEmailData) (string, error) {
	var buf bytes.Buffer
	if err := orderConfirmationTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
