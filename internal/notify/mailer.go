// Package notify sends buyer-facing transactional email over SMTP. Senders
// never fail the operation that triggered them: callers log and move on.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"text/template"

	"github.com/go-faster/errors"

	"github.com/Bruce101github/crochethairbygg/internal/domain/order"
)

// Config holds the SMTP relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// ShopName appears in subjects and signatures.
	ShopName string
}

// Enabled reports whether a relay is configured at all.
func (c Config) Enabled() bool { return c.Host != "" }

var confirmationTmpl = template.Must(template.New("confirmation").Parse(
	`Hi {{.Name}},

Thanks for your order! We've received order #{{.OrderID}} and will start
preparing it as soon as your payment is confirmed.

{{range .Items}}  {{.Quantity}} x {{.ProductTitle}} - GHS {{.Total}}
{{end}}
  Subtotal: GHS {{.Subtotal}}
{{- if .Discount}}
  Discount: -GHS {{.Discount}}
{{- end}}
  Shipping: GHS {{.Shipping}}
  Total:    GHS {{.Total}}

{{.ShopName}}
`))

var statusTmpl = template.Must(template.New("status").Parse(
	`Hi {{.Name}},

Your order #{{.OrderID}} is now {{.Status}}.
{{- if .Tracking}}

Tracking number: {{.Tracking}}
{{- end}}

{{.ShopName}}
`))

var passwordResetTmpl = template.Must(template.New("password_reset").Parse(
	`Hi {{.Name}},

You requested to reset your password. Use the link below to choose a new one:

  {{.ResetURL}}

If you did not request this, you can safely ignore this email.

{{.ShopName}}
`))

var _ order.Notifier = (*Mailer)(nil)

// Mailer implements order.Notifier over a plain SMTP relay.
type Mailer struct {
	cfg  Config
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer creates a Mailer for the given relay. The send function is
// swappable for tests.
func NewMailer(cfg Config) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

// OrderConfirmation emails the post-checkout receipt.
func (m *Mailer) OrderConfirmation(ctx context.Context, o *order.Order) error {
	type itemRow struct {
		ProductTitle string
		Quantity     int
		Total        string
	}
	data := struct {
		Name     string
		OrderID  int64
		Items    []itemRow
		Subtotal string
		Discount string
		Shipping string
		Total    string
		ShopName string
	}{
		Name:     o.Buyer.Name(),
		OrderID:  o.ID,
		Subtotal: o.Subtotal.StringFixed(2),
		Shipping: o.ShippingCost.StringFixed(2),
		Total:    o.Total.StringFixed(2),
		ShopName: m.cfg.ShopName,
	}
	if o.DiscountAmount.IsPositive() {
		data.Discount = o.DiscountAmount.StringFixed(2)
	}
	for _, it := range o.Items {
		data.Items = append(data.Items, itemRow{
			ProductTitle: it.ProductTitle,
			Quantity:     it.Quantity,
			Total:        it.ItemTotal.StringFixed(2),
		})
	}

	subject := fmt.Sprintf("%s - Order #%d confirmed", m.cfg.ShopName, o.ID)
	return m.deliver(ctx, o.Buyer.Email(), subject, confirmationTmpl, data)
}

// OrderStatusUpdate emails a lifecycle change, including the tracking number
// once one exists.
func (m *Mailer) OrderStatusUpdate(ctx context.Context, o *order.Order) error {
	data := struct {
		Name     string
		OrderID  int64
		Status   string
		Tracking string
		ShopName string
	}{
		Name:     o.Buyer.Name(),
		OrderID:  o.ID,
		Status:   string(o.Status),
		Tracking: o.TrackingNumber,
		ShopName: m.cfg.ShopName,
	}

	subject := fmt.Sprintf("%s - Order #%d update", m.cfg.ShopName, o.ID)
	return m.deliver(ctx, o.Buyer.Email(), subject, statusTmpl, data)
}

// PasswordReset emails a reset link. The link itself is minted by the
// account system; this only renders and delivers it.
func (m *Mailer) PasswordReset(ctx context.Context, email, name, resetURL string) error {
	data := struct {
		Name     string
		ResetURL string
		ShopName string
	}{Name: name, ResetURL: resetURL, ShopName: m.cfg.ShopName}

	subject := fmt.Sprintf("%s - Password reset", m.cfg.ShopName)
	return m.deliver(ctx, email, subject, passwordResetTmpl, data)
}

func (m *Mailer) deliver(ctx context.Context, to, subject string, tmpl *template.Template, data any) error {
	if !m.cfg.Enabled() {
		return nil
	}
	if to == "" {
		return errors.New("recipient email is empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var body strings.Builder
	if err := tmpl.Execute(&body, data); err != nil {
		return errors.Wrap(err, "render email body")
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.From, to, subject, body.String())

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return errors.Wrap(err, "send email")
	}
	return nil
}
