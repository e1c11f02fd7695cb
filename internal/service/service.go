package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/farizanjum/newsdigest/internal/digest"
	"github.com/farizanjum/newsdigest/internal/llm"
	"github.com/farizanjum/newsdigest/internal/sources"
	"github.com/farizanjum/newsdigest/pkg/models"
)

// digestCacheTTL keeps a built digest warm long enough for preview and the
// scheduled send to share one fetch round.
const digestCacheTTL = 30 * time.Minute

const maxTechPoolSize = 15

type SubscriberStore interface {
	CreateSubscriber(s *models.Subscriber) error
	GetSubscriber(email string) (*models.Subscriber, error)
	ListActive(digestType string) ([]*models.Subscriber, error)
	UpdatePreferences(email, preferences, digestType string) error
	DeactivateSubscriber(email string) error
	SaveContactMessage(m *models.ContactMessage) error
}

type DigestMailer interface {
	SendWelcome(email, name, preferences string) error
	SendUnsubscribeConfirmation(email, name string) error
	SendPreferenceUpdate(email, name, oldPreferences, newPreferences string) error
	VerifyUnsubscribeToken(email, token string) bool
}

// Service orchestrates subscriptions and digest builds.
type Service struct {
	store        SubscriberStore
	mailer       DigestMailer
	upscFetcher  *sources.Fetcher
	techFetcher  *sources.Fetcher
	renderer     *digest.Renderer
	llmClient    *llm.Client
	rdb          *redis.Client
	logger       *slog.Logger
	now          func() time.Time
}

func NewService(store SubscriberStore, mailer DigestMailer, upscFetcher, techFetcher *sources.Fetcher,
	renderer *digest.Renderer, llmClient *llm.Client, rdb *redis.Client, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		mailer:      mailer,
		upscFetcher: upscFetcher,
		techFetcher: techFetcher,
		renderer:    renderer,
		llmClient:   llmClient,
		rdb:         rdb,
		logger:      logger,
		now:         time.Now,
	}
}

// Subscribe registers (or reactivates) a subscriber and sends the welcome
// email. The welcome send is best-effort.
func (s *Service) Subscribe(ctx context.Context, email, name, preferences, digestType string) (*models.Subscriber, error) {
	if preferences == "" {
		preferences = "all"
	}
	if digestType == "" {
		digestType = models.DigestTech
	}
	sub := &models.Subscriber{
		Email:       strings.ToLower(strings.TrimSpace(email)),
		Name:        strings.TrimSpace(name),
		Preferences: preferences,
		DigestType:  digestType,
		IsActive:    true,
	}
	if err := s.store.CreateSubscriber(sub); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", email, err)
	}

	if err := s.mailer.SendWelcome(sub.Email, sub.Name, sub.Preferences); err != nil {
		s.logger.Warn("welcome email failed", "email", sub.Email, "error", err)
	}
	return sub, nil
}

// Unsubscribe deactivates a subscriber after token verification.
func (s *Service) Unsubscribe(ctx context.Context, email, token string) error {
	if !s.mailer.VerifyUnsubscribeToken(email, token) {
		return fmt.Errorf("invalid unsubscribe token for %s", email)
	}
	sub, err := s.store.GetSubscriber(email)
	if err != nil {
		return err
	}
	if err := s.store.DeactivateSubscriber(email); err != nil {
		return err
	}
	if err := s.mailer.SendUnsubscribeConfirmation(email, sub.Name); err != nil {
		s.logger.Warn("unsubscribe confirmation failed", "email", email, "error", err)
	}
	return nil
}

// UpdatePreferences changes a subscriber's preference string and digest type
// and confirms by email.
func (s *Service) UpdatePreferences(ctx context.Context, email, preferences, digestType string) error {
	sub, err := s.store.GetSubscriber(email)
	if err != nil {
		return err
	}
	if digestType == "" {
		digestType = sub.DigestType
	}
	if err := s.store.UpdatePreferences(email, preferences, digestType); err != nil {
		return err
	}
	if err := s.mailer.SendPreferenceUpdate(email, sub.Name, sub.Preferences, preferences); err != nil {
		s.logger.Warn("preference update email failed", "email", email, "error", err)
	}
	return nil
}

// Contact stores a contact-form message.
func (s *Service) Contact(ctx context.Context, name, email, subject, message string) error {
	return s.store.SaveContactMessage(&models.ContactMessage{
		Name:    name,
		Email:   email,
		Subject: subject,
		Message: message,
	})
}

// BuildUPSCDigest runs the full pipeline and returns the digest HTML for
// today. Empty input is not an error: the result is the fixed placeholder
// document. The built document is cached in redis so preview and the
// scheduled send share one upstream fetch round.
func (s *Service) BuildUPSCDigest(ctx context.Context) (string, error) {
	now := s.now()
	cacheKey := "digest:upsc:" + now.Format("2006-01-02")

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			s.logger.Debug("upsc digest cache hit", "key", cacheKey)
			return cached, nil
		}
	}

	articles := s.upscFetcher.FetchAll(ctx)
	s.logger.Info("upsc fetch round complete", "articles", len(articles))

	articles = digest.Dedupe(articles)
	articles = digest.FilterToday(articles, now)
	digest.SortByPublishedDesc(articles)
	grouped := digest.Categorize(articles)

	html := s.renderer.RenderUPSC(grouped, now, "")

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, cacheKey, html, digestCacheTTL).Err(); err != nil {
			s.logger.Warn("upsc digest cache write failed", "error", err)
		}
	}
	return html, nil
}

// FetchTechArticles gathers the tech article pool: RSS feeds, the AI News
// scraper, and the NewsAPI tech query, URL-deduplicated and capped.
func (s *Service) FetchTechArticles(ctx context.Context, preferences string) ([]models.Article, error) {
	articles := s.techFetcher.FetchAll(ctx)

	seen := make(map[string]struct{}, len(articles))
	unique := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		if a.URL == "" {
			continue
		}
		if _, ok := seen[a.URL]; ok {
			continue
		}
		seen[a.URL] = struct{}{}
		unique = append(unique, a)
	}

	if len(unique) > maxTechPoolSize {
		unique = unique[:maxTechPoolSize]
	}
	return unique, nil
}

// CurateCustom asks the LLM for articles matching a subscriber's custom
// interests. Preferences carrying "|custom:topics" opt in. Empty result
// means fall back to the shared pool.
func (s *Service) CurateCustom(ctx context.Context, preferences string) []models.Article {
	base, custom, ok := strings.Cut(preferences, "|custom:")
	if !ok || custom == "" || !s.llmClient.Enabled() {
		return nil
	}
	articles, err := s.llmClient.CurateArticles(ctx, base, custom)
	if err != nil {
		s.logger.Warn("custom curation failed", "error", err)
		return nil
	}
	return articles
}
