// Package mail sends transactional receipt emails over SMTP. Delivery is
// best-effort: a receipt failure must never turn a successful payment into
// a failed request, so every error is logged and reported as false.
package mail

import (
	"crypto/tls"
	"fmt"

	"github.com/muk2/SagaApi/internal/config"
	domainMail "github.com/muk2/SagaApi/internal/domain/mail"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// mailDialer is satisfied by *gomail.Dialer; tests substitute a fake.
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPReceiptSender renders and sends receipt emails through an SMTP relay.
type SMTPReceiptSender struct {
	cfg    config.SMTPConfig
	dialer mailDialer
	logger *zap.Logger
}

// NewSMTPReceiptSender creates a receipt sender. UseSSL selects implicit
// TLS on connect; otherwise STARTTLS is negotiated when the relay offers it.
func NewSMTPReceiptSender(cfg config.SMTPConfig, logger *zap.Logger) *SMTPReceiptSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.UseSSL
	if cfg.UseTLS || cfg.UseSSL {
		d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	}

	return &SMTPReceiptSender{
		cfg:    cfg,
		dialer: d,
		logger: logger,
	}
}

// SendRegistrationReceipt sends an event registration confirmation receipt.
func (s *SMTPReceiptSender) SendRegistrationReceipt(r domainMail.RegistrationReceipt) bool {
	subject := fmt.Sprintf("SAGA Golf — Registration Confirmation for %s", r.EventName)
	amount := formatAmount(r.Amount)

	textBody := fmt.Sprintf(
		"Registration Confirmation\n\n"+
			"Event: %s\n"+
			"Date: %s\n"+
			"Amount Charged: %s\n"+
			"Card: ****%s\n"+
			"Registration ID: %d\n\n"+
			"Thank you for registering with SAGA Golf!",
		r.EventName, r.EventDate, amount, r.CardLastFour, r.RegistrationID)

	rows := []receiptRow{
		{"Event", r.EventName},
		{"Date", r.EventDate},
		{"Amount Charged", amount},
		{"Card", "****" + r.CardLastFour},
		{"Registration ID", fmt.Sprintf("%d", r.RegistrationID)},
	}
	htmlBody := renderReceiptHTML("Registration Confirmation", rows,
		"Thank you for registering with SAGA Golf!")

	return s.send(r.To, subject, textBody, htmlBody)
}

// SendMembershipReceipt sends a membership payment confirmation receipt.
func (s *SMTPReceiptSender) SendMembershipReceipt(r domainMail.MembershipReceipt) bool {
	subject := "SAGA Golf — Membership Payment Confirmation"
	amount := formatAmount(r.Amount)

	textBody := fmt.Sprintf(
		"Membership Payment Confirmation\n\n"+
			"Tier: %s\n"+
			"Season: %d\n"+
			"Amount Charged: %s\n"+
			"Card: ****%s\n\n"+
			"Thank you for your membership with SAGA Golf!",
		r.TierName, r.SeasonYear, amount, r.CardLastFour)

	rows := []receiptRow{
		{"Membership Tier", r.TierName},
		{"Season Year", fmt.Sprintf("%d", r.SeasonYear)},
		{"Amount Charged", amount},
		{"Card", "****" + r.CardLastFour},
	}
	htmlBody := renderReceiptHTML("Membership Payment Confirmation", rows,
		"Thank you for your membership with SAGA Golf!")

	return s.send(r.To, subject, textBody, htmlBody)
}

// send builds a multipart text+HTML message and dispatches it. Returns
// false on any failure; it never returns an error to the caller.
func (s *SMTPReceiptSender) send(to, subject, textBody, htmlBody string) bool {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.FromEmail, s.cfg.FromName))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("Failed to send receipt email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return false
	}

	s.logger.Info("Receipt email sent",
		zap.String("to", to),
		zap.String("subject", subject))
	return true
}

// formatAmount renders an amount with exactly two decimal places.
func formatAmount(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

type receiptRow struct {
	Label string
	Value string
}

func renderReceiptHTML(heading string, rows []receiptRow, closing string) string {
	tableRows := ""
	for _, row := range rows {
		tableRows += fmt.Sprintf(
			`<tr><td style="padding: 8px; font-weight: bold;">%s</td><td style="padding: 8px;">%s</td></tr>`,
			row.Label, row.Value)
	}

	return fmt.Sprintf(`
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
	<div style="background-color: #2d5016; color: white; padding: 20px; text-align: center;">
		<h1 style="margin: 0;">SAGA Golf</h1>
	</div>
	<div style="padding: 20px; background-color: #f9f9f9;">
		<h2>%s</h2>
		<table style="width: 100%%; border-collapse: collapse;">
			%s
		</table>
		<p style="margin-top: 20px;">%s</p>
	</div>
	<div style="padding: 10px; text-align: center; color: #666; font-size: 12px;">
		<p>SAGA Golf — A Non-Profit Golf Organization</p>
	</div>
</body>
</html>
`, heading, tableRows, closing)
}
