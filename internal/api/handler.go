package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/farizanjum/newsdigest/internal/store"
	"github.com/farizanjum/newsdigest/pkg/models"
)

// SubscriptionService is the slice of the service layer the handlers need.
type SubscriptionService interface {
	Subscribe(ctx context.Context, email, name, preferences, digestType string) (*models.Subscriber, error)
	Unsubscribe(ctx context.Context, email, token string) error
	UpdatePreferences(ctx context.Context, email, preferences, digestType string) error
	Contact(ctx context.Context, name, email, subject, message string) error
	BuildUPSCDigest(ctx context.Context) (string, error)
}

// AdminStore backs the admin endpoints.
type AdminStore interface {
	GetSubscriber(email string) (*models.Subscriber, error)
	ListSubscribers(limit int) ([]*models.Subscriber, error)
	CountActive(digestType string) (int, error)
	CountEmailsSentSince(since time.Time) (int, error)
	ListSchedules() ([]*models.DigestSchedule, error)
	SetSchedule(digestType, scheduledTime string) error
}

// DigestRunner triggers out-of-band digest runs and schedule reloads.
type DigestRunner interface {
	RunNow(digestType string)
	Reload() error
}

type Handler struct {
	svc    SubscriptionService
	store  AdminStore
	runner DigestRunner
	logger *slog.Logger
}

func NewHandler(svc SubscriptionService, st AdminStore, runner DigestRunner, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, store: st, runner: runner, logger: logger}
}

func RegisterRoutes(r *gin.Engine, h *Handler, adminKey string, rdb *redis.Client, logger *slog.Logger) {
	r.GET("/health", h.Health)
	r.POST("/subscribe", h.Subscribe)
	r.GET("/unsubscribe/:email", h.Unsubscribe)
	r.POST("/unsubscribe/:email", h.Unsubscribe)
	r.GET("/preferences", h.GetPreferences)
	r.POST("/preferences", h.UpdatePreferences)
	r.POST("/contact", h.Contact)
	r.GET("/digest/preview", h.DigestPreview)

	admin := r.Group("/api", AdminAuth(adminKey, rdb, logger))
	{
		admin.GET("/stats", h.Stats)
		admin.GET("/admin/subscribers", h.ListSubscribers)
		admin.PUT("/admin/schedule", h.SetSchedule)
		admin.POST("/admin/send-now", h.SendNow)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type subscribeRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Name        string `json:"name"`
	Preferences string `json:"preferences"`
	DigestType  string `json:"digest_type" binding:"omitempty,oneof=tech upsc both"`
}

// Subscribe: POST /subscribe
func (h *Handler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	sub, err := h.svc.Subscribe(c.Request.Context(), req.Email, req.Name, req.Preferences, req.DigestType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscription failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "subscribed",
		"data": gin.H{
			"email":       sub.Email,
			"digest_type": sub.DigestType,
			"preferences": sub.Preferences,
		},
	})
}

// Unsubscribe: GET|POST /unsubscribe/:email?token=...
func (h *Handler) Unsubscribe(c *gin.Context) {
	email := c.Param("email")
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token parameter"})
		return
	}

	err := h.svc.Unsubscribe(c.Request.Context(), email, token)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "subscriber not found"})
	case err != nil:
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid unsubscribe link"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "unsubscribed"})
	}
}

// GetPreferences: GET /preferences?email=...
func (h *Handler) GetPreferences(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email parameter"})
		return
	}

	sub, err := h.store.GetSubscriber(email)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "subscriber not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"email":       sub.Email,
			"name":        sub.Name,
			"preferences": sub.Preferences,
			"digest_type": sub.DigestType,
			"is_active":   sub.IsActive,
		},
	})
}

type preferencesRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Preferences string `json:"preferences" binding:"required"`
	DigestType  string `json:"digest_type" binding:"omitempty,oneof=tech upsc both"`
}

// UpdatePreferences: POST /preferences
func (h *Handler) UpdatePreferences(c *gin.Context) {
	var req preferencesRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	err := h.svc.UpdatePreferences(c.Request.Context(), req.Email, req.Preferences, req.DigestType)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "subscriber not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "preferences updated"})
	}
}

type contactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}

// Contact: POST /contact
func (h *Handler) Contact(c *gin.Context) {
	var req contactRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if err := h.svc.Contact(c.Request.Context(), req.Name, req.Email, req.Subject, req.Message); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save message"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "message received"})
}

// DigestPreview: GET /digest/preview — today's built digest HTML.
func (h *Handler) DigestPreview(c *gin.Context) {
	html, err := h.svc.BuildUPSCDigest(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "digest build failed"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// Stats: GET /api/stats
func (h *Handler) Stats(c *gin.Context) {
	total, err := h.store.CountActive("")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	tech, _ := h.store.CountActive(models.DigestTech)
	upsc, _ := h.store.CountActive(models.DigestUPSC)
	sent24h, _ := h.store.CountEmailsSentSince(time.Now().Add(-24 * time.Hour))
	schedules, _ := h.store.ListSchedules()

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"active_subscribers": total,
			"tech_subscribers":   tech,
			"upsc_subscribers":   upsc,
			"emails_sent_24h":    sent24h,
			"schedules":          schedules,
		},
	})
}

// ListSubscribers: GET /api/admin/subscribers?limit=100
func (h *Handler) ListSubscribers(c *gin.Context) {
	limit := parseLimit(c.DefaultQuery("limit", "100"))
	subs, err := h.store.ListSubscribers(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"meta": gin.H{"count": len(subs)},
		"data": subs,
	})
}

type scheduleRequest struct {
	DigestType    string `json:"digest_type" binding:"required,oneof=tech upsc"`
	ScheduledTime string `json:"scheduled_time" binding:"required"`
}

// SetSchedule: PUT /api/admin/schedule
func (h *Handler) SetSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if !validHHMM(req.ScheduledTime) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_time must be HH:MM"})
		return
	}

	if err := h.store.SetSchedule(req.DigestType, req.ScheduledTime); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.runner.Reload(); err != nil {
		h.logger.Error("schedule reload failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "schedule saved but reload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "schedule updated"})
}

type sendNowRequest struct {
	DigestType string `json:"digest_type" binding:"required,oneof=tech upsc"`
}

// SendNow: POST /api/admin/send-now — kicks off a digest run in the
// background and returns immediately.
func (h *Handler) SendNow(c *gin.Context) {
	var req sendNowRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	go h.runner.RunNow(req.DigestType)
	c.JSON(http.StatusAccepted, gin.H{"message": "digest run started", "digest_type": req.DigestType})
}

func validHHMM(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil && len(s) == 5
}

// parseLimit ensures a sane integer limit, with bounds
func parseLimit(s string) int {
	l, err := strconv.Atoi(s)
	if err != nil || l <= 0 {
		return 100
	}
	if l > 500 {
		return 500
	}
	return l
}
