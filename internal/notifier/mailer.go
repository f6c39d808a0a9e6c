package notifier

import (
	"fmt"
	"net/smtp"
	"strings"

	"meterstock/internal/lifecycle"
	"meterstock/internal/model"

	"github.com/rs/zerolog/log"
)

// MailConfig holds the SMTP relay settings. An empty Host disables email
// entirely, matching the legacy deployment where the relay was optional.
type MailConfig struct {
	Host       string
	Port       string
	From       string
	Username   string
	Password   string
	Recipients []string
}

// EmailNotifier sends a short plain-text summary of each transition to a
// fixed recipient list through an SMTP relay. Sends run in their own
// goroutine and failures are only logged; email here is a courtesy, not a
// system of record.
type EmailNotifier struct {
	cfg MailConfig
}

func NewEmailNotifier(cfg MailConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

func (n *EmailNotifier) Notify(event lifecycle.Event) {
	if n.cfg.Host == "" || len(n.cfg.Recipients) == 0 {
		return
	}
	go func() {
		if err := n.send(event); err != nil {
			log.Warn().Err(err).Str("request_id", event.RequestID).Msg("Failed to send notification email")
		}
	}()
}

func (n *EmailNotifier) send(event lifecycle.Event) error {
	subject := fmt.Sprintf("Stock request %s is now %s", event.RequestID, event.To)
	if event.From == "" {
		subject = fmt.Sprintf("New stock record %s (%s)", event.RequestID, event.To)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Request: %s\r\n", event.RequestID)
	fmt.Fprintf(&body, "Item: %s\r\n", event.ItemType)
	if event.From != "" {
		fmt.Fprintf(&body, "Status: %s -> %s\r\n", event.From, event.To)
	} else {
		fmt.Fprintf(&body, "Status: %s\r\n", event.To)
	}
	fmt.Fprintf(&body, "Actor: %s (%s)\r\n", event.ActorName, event.ActorRole)
	fmt.Fprintf(&body, "At: %s\r\n", event.At.Format("2006-01-02 15:04:05"))
	if event.To == model.StatusDeclined {
		fmt.Fprintf(&body, "\r\nPlease log in to review the decline reason.\r\n")
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.cfg.From, strings.Join(n.cfg.Recipients, ", "), subject, body.String())

	addr := n.cfg.Host + ":" + n.cfg.Port
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	return smtp.SendMail(addr, auth, n.cfg.From, n.cfg.Recipients, []byte(msg))
}
