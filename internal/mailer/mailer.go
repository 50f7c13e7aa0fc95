// Package mailer sends the order confirmation mail fired on a successful
// payment. Delivery failures are the caller's to log; they never affect the
// order state or the webhook acknowledgment.
package mailer

import (
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"storefront_backend/internal/models"
)

type Mailer interface {
	SendOrderConfirmation(to string, order *models.Order) error
}

type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, username: username, password: password, from: from}
}

func (m *SMTPMailer) SendOrderConfirmation(to string, order *models.Order) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(fmt.Sprintf("Order %s confirmed", order.ID))
	msg.SetBodyString(mail.TypeTextHTML, orderConfirmationHTML(order))

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}
	return client.DialAndSend(msg)
}

func orderConfirmationHTML(order *models.Order) string {
	var rows strings.Builder
	for i := range order.Items {
		item := &order.Items[i]
		fmt.Fprintf(&rows, `
			<tr>
				<td>%s</td>
				<td>%d</td>
				<td>%s</td>
				<td>%s</td>
			</tr>`,
			item.ProductName, item.Quantity, item.UnitPrice.StringFixed(2), item.Subtotal().StringFixed(2))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body>
	<h2>Thank you for your order</h2>
	<p>Your payment was received and order <strong>%s</strong> is confirmed.</p>
	<table border="1" cellpadding="6" cellspacing="0">
		<tr><th>Product</th><th>Qty</th><th>Unit price</th><th>Subtotal</th></tr>%s
	</table>
	<p><strong>Total: %s</strong></p>
</body>
</html>`, order.ID, rows.String(), order.TotalPrice.StringFixed(2))
}
