// Package mail renders and delivers transactional email through the
// external mail HTTP API. Order notifications are best-effort; only the
// contact form is required to fail loudly when mail is unconfigured.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	html "github.com/gofiber/template/html/v2"

	"artventure/internal/domain"
	applog "artventure/internal/log"
)

// ErrNotConfigured is returned by Send when no API credentials were
// provided. Callers decide whether that is a warning or a failure.
var ErrNotConfigured = errors.New("mail service not configured")

type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	ReplyTo string `json:"reply_to,omitempty"`
}

type Mailer struct {
	apiURL       string
	apiKey       string
	from         string
	contactEmail string
	eng          *html.Engine
	http         *http.Client
}

// New loads the email templates from dir. The mailer is usable even when
// apiURL/apiKey are empty; sends then return ErrNotConfigured.
func New(apiURL, apiKey, from, contactEmail, dir string) (*Mailer, error) {
	eng := html.New(dir, ".html")
	eng.AddFunc("usd", func(v float64) string { return fmt.Sprintf("$%.2f", v) })
	if err := eng.Load(); err != nil {
		return nil, fmt.Errorf("load email templates: %w", err)
	}
	return &Mailer{
		apiURL:       apiURL,
		apiKey:       apiKey,
		from:         from,
		contactEmail: contactEmail,
		eng:          eng,
		http:         &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (m *Mailer) Configured() bool { return m.apiURL != "" && m.apiKey != "" }

// Send delivers a single message through the mail API.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if !m.Configured() {
		return ErrNotConfigured
	}
	if msg.From == "" {
		msg.From = m.from
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("mail send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mail API returned %d: %s", resp.StatusCode, raw)
	}
	return nil
}

func (m *Mailer) render(tmpl string, o *domain.Order) (string, error) {
	var buf bytes.Buffer
	if err := m.eng.Render(&buf, tmpl, o); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl, err)
	}
	return buf.String(), nil
}

// sendOrder renders an order template and delivers it; an unconfigured
// mailer is a logged no-op so order flows never depend on it.
func (m *Mailer) sendOrder(ctx context.Context, tmpl, subject string, o *domain.Order) error {
	if !m.Configured() {
		applog.Warn("mail.skip.unconfigured", nil, map[string]any{"template": tmpl, "order": o.OrderNumber})
		return nil
	}
	body, err := m.render(tmpl, o)
	if err != nil {
		return err
	}
	return m.Send(ctx, Message{To: o.Email, Subject: subject, HTML: body})
}

func (m *Mailer) OrderConfirmation(ctx context.Context, o *domain.Order) error {
	return m.sendOrder(ctx, "order_confirmation",
		fmt.Sprintf("Order Confirmation #%s", o.OrderNumber), o)
}

func (m *Mailer) OrderProcessing(ctx context.Context, o *domain.Order) error {
	return m.sendOrder(ctx, "order_processing",
		fmt.Sprintf("Order #%s is Being Processed", o.OrderNumber), o)
}

func (m *Mailer) OrderShipped(ctx context.Context, o *domain.Order) error {
	return m.sendOrder(ctx, "order_shipped",
		fmt.Sprintf("Order #%s Has Shipped!", o.OrderNumber), o)
}

type ContactForm struct {
	Name    string
	Email   string
	Message string
}

// ContactFormEmail relays a contact-form submission to the store's
// support address. Unlike order mail this errors when unconfigured.
func (m *Mailer) ContactFormEmail(ctx context.Context, f ContactForm) error {
	if !m.Configured() {
		return ErrNotConfigured
	}
	var buf bytes.Buffer
	if err := m.eng.Render(&buf, "contact", f); err != nil {
		return fmt.Errorf("render contact: %w", err)
	}
	return m.Send(ctx, Message{
		To:      m.contactEmail,
		Subject: fmt.Sprintf("Contact Form: message from %s", f.Name),
		HTML:    buf.String(),
		ReplyTo: f.Email,
	})
}
