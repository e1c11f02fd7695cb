package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/farizanjum/newsdigest/internal/store"
	"github.com/farizanjum/newsdigest/pkg/models"
)

type stubService struct {
	subscribed   []string
	unsubErr     error
	prefsErr     error
	digestHTML   string
	digestCalled bool
}

func (s *stubService) Subscribe(_ context.Context, email, name, preferences, digestType string) (*models.Subscriber, error) {
	s.subscribed = append(s.subscribed, email)
	return &models.Subscriber{Email: email, Name: name, Preferences: preferences, DigestType: digestType}, nil
}

func (s *stubService) Unsubscribe(_ context.Context, email, token string) error {
	return s.unsubErr
}

func (s *stubService) UpdatePreferences(_ context.Context, email, preferences, digestType string) error {
	return s.prefsErr
}

func (s *stubService) Contact(_ context.Context, name, email, subject, message string) error {
	return nil
}

func (s *stubService) BuildUPSCDigest(_ context.Context) (string, error) {
	s.digestCalled = true
	return s.digestHTML, nil
}

type stubStore struct {
	subscriber *models.Subscriber
	schedules  []*models.DigestSchedule
	setCalls   []string
}

func (s *stubStore) GetSubscriber(email string) (*models.Subscriber, error) {
	if s.subscriber == nil || s.subscriber.Email != email {
		return nil, store.ErrNotFound
	}
	return s.subscriber, nil
}

func (s *stubStore) ListSubscribers(limit int) ([]*models.Subscriber, error) {
	if s.subscriber == nil {
		return nil, nil
	}
	return []*models.Subscriber{s.subscriber}, nil
}

func (s *stubStore) CountActive(digestType string) (int, error) { return 7, nil }

func (s *stubStore) CountEmailsSentSince(t time.Time) (int, error) { return 3, nil }

func (s *stubStore) ListSchedules() ([]*models.DigestSchedule, error) { return s.schedules, nil }

func (s *stubStore) SetSchedule(digestType, scheduledTime string) error {
	s.setCalls = append(s.setCalls, digestType+"@"+scheduledTime)
	return nil
}

type stubRunner struct {
	ran      []string
	reloaded int
}

func (r *stubRunner) RunNow(digestType string) { r.ran = append(r.ran, digestType) }
func (r *stubRunner) Reload() error            { r.reloaded++; return nil }

func newTestRouter(svc *stubService, st *stubStore, runner *stubRunner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(svc, st, runner, logger)
	r := gin.New()
	RegisterRoutes(r, h, "secret-key", nil, logger)
	return r
}

func TestSubscribeValidation(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	r := newTestRouter(svc, &stubStore{}, &stubRunner{})

	// missing email
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/subscribe", strings.NewReader(`{"name":"A"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing email: status %d", w.Code)
	}

	// bad digest type
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/subscribe",
		strings.NewReader(`{"email":"a@example.com","digest_type":"weekly"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad digest type: status %d", w.Code)
	}

	// valid
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/subscribe",
		strings.NewReader(`{"email":"a@example.com","name":"A","digest_type":"upsc"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("valid subscribe: status %d, body %s", w.Code, w.Body.String())
	}
	if len(svc.subscribed) != 1 || svc.subscribed[0] != "a@example.com" {
		t.Fatalf("service not called correctly: %+v", svc.subscribed)
	}
}

func TestUnsubscribeRequiresToken(t *testing.T) {
	t.Parallel()

	r := newTestRouter(&stubService{}, &stubStore{}, &stubRunner{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/unsubscribe/a@example.com", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing token: status %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/unsubscribe/a@example.com?token=tok", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("with token: status %d", w.Code)
	}
}

func TestUnsubscribeNotFound(t *testing.T) {
	t.Parallel()

	svc := &stubService{unsubErr: store.ErrNotFound}
	r := newTestRouter(svc, &stubStore{}, &stubRunner{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/unsubscribe/missing@example.com?token=tok", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d", w.Code)
	}
}

func TestGetPreferences(t *testing.T) {
	t.Parallel()

	st := &stubStore{subscriber: &models.Subscriber{Email: "a@example.com", Preferences: "ai", DigestType: "tech", IsActive: true}}
	r := newTestRouter(&stubService{}, st, &stubRunner{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/preferences?email=a@example.com", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"preferences":"ai"`) {
		t.Fatalf("body: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/preferences?email=b@example.com", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown subscriber: status %d", w.Code)
	}
}

func TestDigestPreview(t *testing.T) {
	t.Parallel()

	svc := &stubService{digestHTML: "<html><body>digest</body></html>"}
	r := newTestRouter(svc, &stubStore{}, &stubRunner{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/digest/preview", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type %s", ct)
	}
	if !svc.digestCalled {
		t.Fatal("digest build not invoked")
	}
}

func TestAdminAuthRequired(t *testing.T) {
	t.Parallel()

	r := newTestRouter(&stubService{}, &stubStore{}, &stubRunner{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no key: status %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("X-Admin-Key", "wrong")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: status %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("X-Admin-Key", "secret-key")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("correct key: status %d, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"active_subscribers":7`) {
		t.Fatalf("stats body: %s", w.Body.String())
	}
}

func TestSetScheduleValidatesAndReloads(t *testing.T) {
	t.Parallel()

	st := &stubStore{}
	runner := &stubRunner{}
	r := newTestRouter(&stubService{}, st, runner)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/admin/schedule",
		strings.NewReader(`{"digest_type":"upsc","scheduled_time":"25:00"}`))
	req.Header.Set("X-Admin-Key", "secret-key")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad time: status %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/admin/schedule",
		strings.NewReader(`{"digest_type":"upsc","scheduled_time":"06:30"}`))
	req.Header.Set("X-Admin-Key", "secret-key")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid schedule: status %d, body %s", w.Code, w.Body.String())
	}
	if len(st.setCalls) != 1 || st.setCalls[0] != "upsc@06:30" {
		t.Fatalf("store calls: %+v", st.setCalls)
	}
	if runner.reloaded != 1 {
		t.Fatalf("reload count %d", runner.reloaded)
	}
}

func TestSendNow(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	r := newTestRouter(&stubService{}, &stubStore{}, runner)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/send-now",
		strings.NewReader(`{"digest_type":"tech"}`))
	req.Header.Set("X-Admin-Key", "secret-key")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}
}
