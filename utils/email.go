package utils

import (
	"fmt"
	"html"
	"log"
	"net/smtp"
	"os"
	"strings"

	"storefront/models"
)

type EmailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func GetEmailConfig() *EmailConfig {
	return &EmailConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     os.Getenv("SMTP_PORT"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
}

func (c *EmailConfig) Configured() bool {
	return c.Host != "" && c.Port != "" && c.From != ""
}

// Mailer sends customer notifications. Sends happen in the background and
// failures are only logged.
type Mailer struct {
	config *EmailConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(config *EmailConfig) *Mailer {
	return &Mailer{config: config, send: smtp.SendMail}
}

func (m *Mailer) SendEmail(to, subject, htmlBody string) error {
	if !m.config.Configured() {
		return fmt.Errorf("SMTP not configured")
	}

	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n",
		m.config.From, to, subject)
	msg := []byte(headers + htmlBody)

	var auth smtp.Auth
	if m.config.Username != "" && m.config.Password != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	addr := m.config.Host + ":" + m.config.Port
	return m.send(addr, auth, m.config.From, []string{to}, msg)
}

func (m *Mailer) sendAsync(to, subject, body, what string) {
	go func() {
		if err := m.SendEmail(to, subject, body); err != nil {
			log.Printf("Failed to send %s to %s: %v", what, to, err)
		}
	}()
}

func firstName(o *models.Order) string {
	if o.ShippingAddress != nil {
		if names := strings.Fields(o.ShippingAddress.FullName); len(names) > 0 {
			return html.EscapeString(names[0])
		}
	}
	return "there"
}

func recipient(o *models.Order) string {
	if o.UserEmail != "" {
		return o.UserEmail
	}
	if o.ShippingAddress != nil {
		return o.ShippingAddress.Email
	}
	return ""
}

func orderConfirmationBody(o *models.Order) string {
	var rows strings.Builder
	for _, it := range o.Items {
		fmt.Fprintf(&rows, "<li>%d × %s, $%.2f</li>\n", it.Quantity, html.EscapeString(it.Title), it.Price)
	}
	return fmt.Sprintf(`<h2>Order Confirmed!</h2>
<p>Hi %s,</p>
<p>Your order <strong>%s</strong> has been placed successfully.</p>
<ul>
%s</ul>
<p>Subtotal: $%.2f<br>Shipping: $%.2f<br>Tax: $%.2f</p>
<p>Order total: <strong>$%.2f</strong></p>
<p>We'll notify you when your order status changes.</p>`,
		firstName(o), o.OrderNumber, rows.String(), o.Subtotal, o.Shipping, o.Tax, o.Total)
}

func statusUpdateBody(o *models.Order) string {
	return fmt.Sprintf(`<h2>Order Status Update</h2>
<p>Hi %s,</p>
<p>Your order <strong>%s</strong> status has been updated to: <strong>%s</strong></p>`,
		firstName(o), o.OrderNumber, o.Status)
}

func (m *Mailer) SendOrderConfirmation(o *models.Order) {
	to := recipient(o)
	if to == "" {
		return
	}
	m.sendAsync(to, fmt.Sprintf("Order Confirmed - %s", o.OrderNumber), orderConfirmationBody(o), "order confirmation")
}

func (m *Mailer) SendOrderStatusUpdate(o *models.Order) {
	to := recipient(o)
	if to == "" {
		return
	}
	m.sendAsync(to, fmt.Sprintf("Order %s - Status Update", o.OrderNumber), statusUpdateBody(o), "status update email")
}
