package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"insurance_platform/dashboard/storage"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Message struct {
	To      string
	Subject string
	Html    string
}

// Mailer is the delivery capability. Implementations must respect ctx
// cancellation so the service can enforce its delivery budget.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

const (
	gmailSmtpHost = "smtp.gmail.com"
	gmailSmtpPort = 587
)

// SmtpMailer relays through the Gmail submission port with AUTH PLAIN over
// STARTTLS.
type SmtpMailer struct {
	sender   string
	password string
}

func NewSmtpMailer(sender, password string) *SmtpMailer {
	return &SmtpMailer{sender: sender, password: password}
}

func (m *SmtpMailer) Send(ctx context.Context, msg Message) error {
	var body strings.Builder
	fmt.Fprintf(&body, "From: %v\r\n", m.sender)
	fmt.Fprintf(&body, "To: %v\r\n", msg.To)
	fmt.Fprintf(&body, "Subject: %v\r\n", msg.Subject)
	body.WriteString("MIME-Version: 1.0\r\n")
	body.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	body.WriteString("\r\n")
	body.WriteString(msg.Html)

	auth := smtp.PlainAuth("", m.sender, m.password, gmailSmtpHost)
	addr := fmt.Sprintf("%v:%v", gmailSmtpHost, gmailSmtpPort)

	// net/smtp has no context support, so the dial+send runs in a goroutine
	// and we abandon it when the budget expires.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.sender, []string{msg.To}, []byte(body.String()))
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp relay error: %w", err)
		}
		return nil
	}
}

// SendGridMailer delivers through the SendGrid HTTP API.
type SendGridMailer struct {
	sender string
	apiKey string
}

func NewSendGridMailer(sender, apiKey string) *SendGridMailer {
	return &SendGridMailer{sender: sender, apiKey: apiKey}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail("MediCare+ Platform", m.sender)
	to := mail.NewEmail("", msg.To)
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.Html, msg.Html)

	client := sendgrid.NewSendClient(m.apiKey)
	response, err := client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected message: status %v", response.StatusCode)
	}
	return nil
}

var unsafeRecipientChars = regexp.MustCompile(`[^\w\-.@]`)

// FileSink writes reports into an outbox directory instead of relaying them.
// Used when no mail credentials are configured, and in tests.
type FileSink struct {
	storage storage.Storage
}

func NewFileSink(storage storage.Storage) *FileSink {
	return &FileSink{storage: storage}
}

func (m *FileSink) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name := fmt.Sprintf("%v_%v.html",
		time.Now().Format("20060102_150405"),
		unsafeRecipientChars.ReplaceAllString(msg.To, "_"))
	path := filepath.Join("outbox", name)

	if err := m.storage.Write(path, strings.NewReader(msg.Html)); err != nil {
		return err
	}

	slog.Info("email written to outbox", "recipient", msg.To, "path", path)

	return nil
}
