package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/yuin/goldmark"
)

var ErrMailDisabled = errors.New("mail delivery is not configured")

// Message is one outgoing email. Body is markdown; senders render it.
type Message struct {
	To       []string
	ReplyTo  string
	Subject  string
	Markdown string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// RenderHTML converts a markdown body to HTML.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

var (
	otpTemplate = template.Must(template.New("otp").Parse(`# {{.Title}}

Hi {{.Name}},

Your verification code is **{{.Code}}**. It expires in {{.Minutes}} minutes.

If you did not request this, you can ignore this email.
`))

	contactTemplate = template.Must(template.New("contact").Parse(`## New contact message

**From:** {{.Name}} <{{.Email}}>

{{.Message}}
`))
)

// OTPMessage builds the verification code email.
func OTPMessage(to, name, code, title string, minutes int) (Message, error) {
	var buf bytes.Buffer
	if name == "" {
		name = "there"
	}
	err := otpTemplate.Execute(&buf, map[string]any{
		"Title": title, "Name": name, "Code": code, "Minutes": minutes,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{to}, Subject: title, Markdown: buf.String()}, nil
}

// ContactMessage builds the email forwarded to the gym inbox. The
// sender's address becomes Reply-To.
func ContactMessage(inbox, name, email, message string) (Message, error) {
	var buf bytes.Buffer
	err := contactTemplate.Execute(&buf, map[string]any{
		"Name": name, "Email": email, "Message": escapeMarkdown(message),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:       []string{inbox},
		ReplyTo:  email,
		Subject:  "Contact form: " + name,
		Markdown: buf.String(),
	}, nil
}

// escapeMarkdown keeps user text from turning into raw HTML. goldmark
// drops raw HTML by default; this also neutralises headings and links.
var markdownEscaper = strings.NewReplacer(`<`, `&lt;`, `>`, `&gt;`, `[`, `\[`, `]`, `\]`, `#`, `\#`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

type disabledMailer struct{}

// NewDisabled returns a Mailer that always fails with ErrMailDisabled.
func NewDisabled() Mailer { return disabledMailer{} }

func (disabledMailer) Send(context.Context, Message) error { return ErrMailDisabled }
