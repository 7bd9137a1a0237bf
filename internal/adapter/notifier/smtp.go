package notifier

import (
	"context"
	"fmt"
	"net/smtp"

	"prepaid-wallet-service/config"

	"github.com/rs/zerolog"
)

// SMTPNotifier implements ports.Notifier by delivering payment tokens
// over plain SMTP.
type SMTPNotifier struct {
	cfg config.SMTPConfig
	log zerolog.Logger

	// send is swapped out in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier creates a notifier backed by the configured SMTP server.
func NewSMTPNotifier(cfg config.SMTPConfig, log zerolog.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:  cfg,
		log:  log.With().Str("component", "smtp_notifier").Logger(),
		send: smtp.SendMail,
	}
}

// SendToken emails the confirmation token and session id to the client.
func (n *SMTPNotifier) SendToken(ctx context.Context, email, token, sessionID string) error {
	subject := "Your payment confirmation token"
	body := fmt.Sprintf(
		"Your payment confirmation token is %s.\r\n\r\n"+
			"Session: %s\r\n\r\n"+
			"The token expires in 5 minutes. If you did not request a payment, ignore this message.\r\n",
		token, sessionID,
	)

	msg := fmt.Sprintf("From: %s\r\n", n.cfg.From)
	msg += fmt.Sprintf("To: %s\r\n", email)
	msg += fmt.Sprintf("Subject: %s\r\n", subject)
	msg += "MIME-Version: 1.0\r\n"
	msg += "Content-Type: text/plain; charset=UTF-8\r\n\r\n"
	msg += body

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	if err := n.send(n.cfg.Addr(), auth, n.cfg.From, []string{email}, []byte(msg)); err != nil {
		return fmt.Errorf("send token email: %w", err)
	}

	n.log.Info().
		Str("to", email).
		Str("session_id", sessionID).
		Msg("Token email sent")
	return nil
}
