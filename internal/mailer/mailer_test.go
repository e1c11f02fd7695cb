package mailer

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

func testMailer() *Mailer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New("smtp.example.com", 587, "user", "pass", "digest@example.com",
		"https://digest.example.com", "test-secret", nil, logger)
}

func TestUnsubscribeTokenRoundTrip(t *testing.T) {
	t.Parallel()

	m := testMailer()
	token := m.UnsubscribeToken("a@example.com")
	if token == "" {
		t.Fatal("empty token")
	}
	if !m.VerifyUnsubscribeToken("a@example.com", token) {
		t.Fatal("token should verify for the same email")
	}
	if m.VerifyUnsubscribeToken("b@example.com", token) {
		t.Fatal("token must not verify for another email")
	}
	if m.VerifyUnsubscribeToken("a@example.com", token+"0") {
		t.Fatal("tampered token must not verify")
	}
}

func TestUnsubscribeTokenDeterministic(t *testing.T) {
	t.Parallel()

	m := testMailer()
	if m.UnsubscribeToken("a@example.com") != m.UnsubscribeToken("a@example.com") {
		t.Fatal("token must be stable for the same email and secret")
	}

	other := New("smtp.example.com", 587, "user", "pass", "digest@example.com",
		"https://digest.example.com", "other-secret", nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if m.UnsubscribeToken("a@example.com") == other.UnsubscribeToken("a@example.com") {
		t.Fatal("different secrets must produce different tokens")
	}
}

func TestSubstitute(t *testing.T) {
	t.Parallel()

	out := substitute("Hello {{NAME}}, prefs: {{PREFERENCES}}", map[string]string{
		"{{NAME}}":        "Asha",
		"{{PREFERENCES}}": "All topics",
	})
	if out != "Hello Asha, prefs: All topics" {
		t.Fatalf("got %q", out)
	}
}

func TestFormatPreferences(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"", "All topics"},
		{"all", "All topics"},
		{"ai,cloud", "ai, cloud"},
		{"all|custom:quantum computing", "All topics plus custom interests: quantum computing"},
		{"ai|custom:", "ai"},
	}
	for _, tc := range cases {
		if got := formatPreferences(tc.in); got != tc.want {
			t.Fatalf("formatPreferences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWelcomeBodyCarriesLinks(t *testing.T) {
	t.Parallel()

	m := testMailer()
	body := substitute(welcomeTemplate, map[string]string{
		"{{NAME}}":             "Asha",
		"{{PREFERENCES}}":      "All topics",
		"{{UNSUBSCRIBE_LINK}}": m.unsubscribeURL("asha@example.com"),
		"{{PREFERENCES_LINK}}": m.preferencesURL("asha@example.com"),
	})
	if strings.Contains(body, "{{") {
		t.Fatal("unsubstituted placeholder left in body")
	}
	if !strings.Contains(body, "/unsubscribe/asha%40example.com?token=") {
		t.Fatal("unsubscribe link missing or unencoded")
	}
	if !strings.Contains(body, "/preferences?email=asha%40example.com") {
		t.Fatal("preferences link missing or unencoded")
	}
}
