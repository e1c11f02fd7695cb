package mailer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/farizanjum/newsdigest/pkg/models"
)

// EmailLogger records send attempts. Logging failures never fail a send.
type EmailLogger interface {
	LogEmail(l *models.EmailLog) error
}

// Mailer sends digest and lifecycle emails over SMTP.
type Mailer struct {
	dialer  *gomail.Dialer
	from    string
	baseURL string
	secret  string
	logs    EmailLogger
	logger  *slog.Logger
}

func New(host string, port int, username, password, from, baseURL, secret string, logs EmailLogger, logger *slog.Logger) *Mailer {
	return &Mailer{
		dialer:  gomail.NewDialer(host, port, username, password),
		from:    from,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		secret:  secret,
		logs:    logs,
		logger:  logger,
	}
}

// UnsubscribeToken derives the HMAC token that authorizes one-click
// unsubscription for an email address.
func (m *Mailer) UnsubscribeToken(email string) string {
	mac := hmac.New(sha256.New, []byte(m.secret))
	mac.Write([]byte(email + ":unsubscribe"))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyUnsubscribeToken checks a presented token in constant time.
func (m *Mailer) VerifyUnsubscribeToken(email, token string) bool {
	expected := m.UnsubscribeToken(email)
	return hmac.Equal([]byte(expected), []byte(token))
}

// SendHTML delivers one HTML email and logs the attempt either way.
func (m *Mailer) SendHTML(to, subject, htmlBody, digestType string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	err := m.dialer.DialAndSend(msg)

	log := &models.EmailLog{
		RecipientEmail: to,
		DigestType:     digestType,
		Subject:        subject,
		Status:         "sent",
		SentAt:         time.Now().UTC(),
	}
	if err != nil {
		log.Status = "failed"
		log.ErrorMessage = err.Error()
	}
	if m.logs != nil {
		if logErr := m.logs.LogEmail(log); logErr != nil {
			m.logger.Warn("email log write failed", "recipient", to, "error", logErr)
		}
	}

	if err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}
	return nil
}

func (m *Mailer) SendUPSCDigest(to, digestHTML string, date time.Time) error {
	subject := "Your Daily UPSC Digest - " + date.Format("January 2, 2006")
	return m.SendHTML(to, subject, digestHTML, models.DigestUPSC)
}

func (m *Mailer) SendTechDigest(to, digestHTML string, date time.Time) error {
	subject := "Your Daily Tech News Digest - " + date.Format("January 2, 2006")
	return m.SendHTML(to, subject, digestHTML, models.DigestTech)
}

// SendWelcome greets a new subscriber and includes their manage links.
func (m *Mailer) SendWelcome(email, name, preferences string) error {
	body := substitute(welcomeTemplate, map[string]string{
		"{{NAME}}":             displayName(name),
		"{{PREFERENCES}}":      formatPreferences(preferences),
		"{{UNSUBSCRIBE_LINK}}": m.unsubscribeURL(email),
		"{{PREFERENCES_LINK}}": m.preferencesURL(email),
	})
	return m.SendHTML(email, "Welcome to AI News Digest!", body, "welcome")
}

// SendUnsubscribeConfirmation acknowledges an unsubscription.
func (m *Mailer) SendUnsubscribeConfirmation(email, name string) error {
	body := substitute(unsubscribeTemplate, map[string]string{
		"{{NAME}}": displayName(name),
	})
	return m.SendHTML(email, "We're sorry to see you go!", body, "unsubscribe")
}

// SendPreferenceUpdate confirms a preference change, showing old and new.
func (m *Mailer) SendPreferenceUpdate(email, name, oldPreferences, newPreferences string) error {
	body := substitute(preferenceTemplate, map[string]string{
		"{{NAME}}":             displayName(name),
		"{{OLD_PREFERENCES}}":  formatPreferences(oldPreferences),
		"{{NEW_PREFERENCES}}":  formatPreferences(newPreferences),
		"{{UNSUBSCRIBE_LINK}}": m.unsubscribeURL(email),
		"{{PREFERENCES_LINK}}": m.preferencesURL(email),
	})
	return m.SendHTML(email, "AI News Digest - Preferences Updated Successfully", body, "preference_update")
}

func (m *Mailer) unsubscribeURL(email string) string {
	return fmt.Sprintf("%s/unsubscribe/%s?token=%s", m.baseURL, url.QueryEscape(email), m.UnsubscribeToken(email))
}

func (m *Mailer) preferencesURL(email string) string {
	return m.baseURL + "/preferences?email=" + url.QueryEscape(email)
}

func substitute(template string, values map[string]string) string {
	out := template
	for placeholder, value := range values {
		out = strings.ReplaceAll(out, placeholder, value)
	}
	return out
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}

// formatPreferences turns the stored preference string into display text.
// Custom interests are stored as "all|custom:topic1,topic2".
func formatPreferences(prefs string) string {
	if prefs == "" || prefs == "all" {
		return "All topics"
	}
	if base, custom, ok := strings.Cut(prefs, "|custom:"); ok {
		if base == "" || base == "all" {
			base = "All topics"
		}
		if custom != "" {
			return base + " plus custom interests: " + custom
		}
		return base
	}
	return strings.ReplaceAll(prefs, ",", ", ")
}

const welcomeTemplate = `<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #1a73e8;">Welcome to AI News Digest!</h1>
  <p>Hi {{NAME}},</p>
  <p>Thanks for subscribing. You'll receive a curated daily digest matched to your preferences:</p>
  <p style="background: #f8f9fa; padding: 12px; border-radius: 5px;"><strong>{{PREFERENCES}}</strong></p>
  <p>Your first digest arrives with the next scheduled send.</p>
  <p style="font-size: 0.9em; color: #666;">
    <a href="{{PREFERENCES_LINK}}">Manage preferences</a> |
    <a href="{{UNSUBSCRIBE_LINK}}">Unsubscribe</a>
  </p>
</div>
</body>
</html>`

const unsubscribeTemplate = `<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #2c3e50;">You've been unsubscribed</h1>
  <p>Hi {{NAME}},</p>
  <p>We're sorry to see you go. You won't receive any more digests from us.</p>
  <p>If this was a mistake, you can subscribe again any time from the website.</p>
</div>
</body>
</html>`

const preferenceTemplate = `<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #1a73e8;">Preferences updated</h1>
  <p>Hi {{NAME}},</p>
  <p>Your digest preferences have been updated.</p>
  <p style="background: #f8f9fa; padding: 12px; border-radius: 5px;">
    Previous: {{OLD_PREFERENCES}}<br>
    Current: <strong>{{NEW_PREFERENCES}}</strong>
  </p>
  <p style="font-size: 0.9em; color: #666;">
    <a href="{{PREFERENCES_LINK}}">Manage preferences</a> |
    <a href="{{UNSUBSCRIBE_LINK}}">Unsubscribe</a>
  </p>
</div>
</body>
</html>`
