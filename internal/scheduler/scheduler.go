package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/farizanjum/newsdigest/internal/digest"
	"github.com/farizanjum/newsdigest/internal/store"
	"github.com/farizanjum/newsdigest/pkg/models"
)

// interSendDelay paces subscriber sends so the SMTP relay is not hammered.
const interSendDelay = time.Second

const defaultSendTime = "20:00"

type ScheduleStore interface {
	ListSchedules() ([]*models.DigestSchedule, error)
	SetSchedule(digestType, scheduledTime string) error
	MarkScheduleRun(digestType string, lastRun, nextRun time.Time) error
	ListActive(digestType string) ([]*models.Subscriber, error)
	UpdateLastSent(email string, at time.Time) error
}

type DigestBuilder interface {
	BuildUPSCDigest(ctx context.Context) (string, error)
	FetchTechArticles(ctx context.Context, preferences string) ([]models.Article, error)
	CurateCustom(ctx context.Context, preferences string) []models.Article
}

type DigestSender interface {
	SendUPSCDigest(to, digestHTML string, date time.Time) error
	SendTechDigest(to, digestHTML string, date time.Time) error
}

type TechRenderer interface {
	RenderTech(articles []models.Article, date time.Time, recipientEmail string) string
}

// Scheduler owns the daily digest cron entries. Entries are rebuilt from the
// schedule table on Start and on Reload.
type Scheduler struct {
	cron    *cron.Cron
	store   ScheduleStore
	builder DigestBuilder
	sender  DigestSender
	tech    TechRenderer
	loc     *time.Location
	logger  *slog.Logger

	mu      sync.Mutex
	entries []cron.EntryID
	delay   time.Duration
}

func New(st ScheduleStore, builder DigestBuilder, sender DigestSender, tech TechRenderer,
	loc *time.Location, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		store:   st,
		builder: builder,
		sender:  sender,
		tech:    tech,
		loc:     loc,
		logger:  logger,
		delay:   interSendDelay,
	}
}

// Start registers the schedule entries and starts the cron loop. When the
// schedule table is empty both digest types default to a daily 20:00 send.
func (s *Scheduler) Start() error {
	if err := s.ensureDefaults(); err != nil {
		return fmt.Errorf("seed default schedules: %w", err)
	}
	if err := s.Reload(); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Reload rebuilds the cron entries from the schedule table. Called after
// admin schedule edits.
func (s *Scheduler) Reload() error {
	schedules, err := s.store.ListSchedules()
	if err != nil {
		return fmt.Errorf("list schedules: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.entries {
		s.cron.Remove(id)
	}
	s.entries = s.entries[:0]

	for _, sched := range schedules {
		spec, err := cronSpec(sched.ScheduledTime)
		if err != nil {
			s.logger.Error("skipping schedule with bad time", "digest_type", sched.DigestType, "time", sched.ScheduledTime, "error", err)
			continue
		}
		digestType := sched.DigestType
		id, err := s.cron.AddFunc(spec, func() { s.run(digestType) })
		if err != nil {
			s.logger.Error("cron registration failed", "digest_type", digestType, "spec", spec, "error", err)
			continue
		}
		s.entries = append(s.entries, id)
		s.logger.Info("digest scheduled", "digest_type", digestType, "time", sched.ScheduledTime)
	}
	return nil
}

func (s *Scheduler) ensureDefaults() error {
	schedules, err := s.store.ListSchedules()
	if err != nil {
		return err
	}
	if len(schedules) > 0 {
		return nil
	}
	for _, dt := range []string{models.DigestUPSC, models.DigestTech} {
		if err := s.store.SetSchedule(dt, defaultSendTime); err != nil {
			return err
		}
	}
	return nil
}

// cronSpec converts a daily "HH:MM" send time into a cron expression.
func cronSpec(hhmm string) (string, error) {
	hh, mm, ok := strings.Cut(hhmm, ":")
	if !ok {
		return "", errors.New("expected HH:MM")
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("bad hour %q", hh)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("bad minute %q", mm)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// RunNow triggers an immediate digest run outside the cron cadence, used by
// the admin send-now endpoint. Runs in the caller's goroutine.
func (s *Scheduler) RunNow(digestType string) {
	s.run(digestType)
}

func (s *Scheduler) run(digestType string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	var err error
	switch digestType {
	case models.DigestUPSC:
		err = s.runUPSC(ctx)
	case models.DigestTech:
		err = s.runTech(ctx)
	default:
		err = fmt.Errorf("unknown digest type %q", digestType)
	}
	if err != nil {
		s.logger.Error("digest run failed", "digest_type", digestType, "error", err)
	}

	now := time.Now().In(s.loc)
	if markErr := s.store.MarkScheduleRun(digestType, now, now.AddDate(0, 0, 1)); markErr != nil {
		s.logger.Warn("schedule bookkeeping failed", "digest_type", digestType, "error", markErr)
	}
}

// runUPSC builds the digest once and fans it out to every active UPSC
// subscriber. A failed send is logged and skipped; the run continues.
func (s *Scheduler) runUPSC(ctx context.Context) error {
	html, err := s.builder.BuildUPSCDigest(ctx)
	if err != nil {
		return fmt.Errorf("build upsc digest: %w", err)
	}

	subs, err := s.store.ListActive(models.DigestUPSC)
	if err != nil {
		return fmt.Errorf("list upsc subscribers: %w", err)
	}
	if len(subs) == 0 {
		s.logger.Info("no active upsc subscribers")
		return nil
	}

	now := time.Now().In(s.loc)
	sent := 0
	for i, sub := range subs {
		if i > 0 {
			time.Sleep(s.delay)
		}
		if err := s.sender.SendUPSCDigest(sub.Email, html, now); err != nil {
			s.logger.Error("upsc send failed", "email", sub.Email, "error", err)
			continue
		}
		sent++
		if err := s.store.UpdateLastSent(sub.Email, now); err != nil {
			s.logger.Warn("last-sent update failed", "email", sub.Email, "error", err)
		}
	}
	s.logger.Info("upsc digest run complete", "sent", sent, "total", len(subs))
	return nil
}

// runTech fetches the article pool once and renders per subscriber, honoring
// preference filters and custom-interest curation.
func (s *Scheduler) runTech(ctx context.Context) error {
	pool, err := s.builder.FetchTechArticles(ctx, "all")
	if err != nil {
		return fmt.Errorf("fetch tech articles: %w", err)
	}

	subs, err := s.store.ListActive(models.DigestTech)
	if err != nil {
		return fmt.Errorf("list tech subscribers: %w", err)
	}
	if len(subs) == 0 {
		s.logger.Info("no active tech subscribers")
		return nil
	}

	now := time.Now().In(s.loc)
	sent := 0
	for i, sub := range subs {
		if i > 0 {
			time.Sleep(s.delay)
		}

		articles := pool
		if curated := s.builder.CurateCustom(ctx, sub.Preferences); len(curated) > 0 {
			articles = curated
		} else if filtered := filterByPreferences(pool, sub.Preferences); len(filtered) > 0 {
			articles = filtered
		}

		html := s.tech.RenderTech(articles, now, sub.Email)
		if err := s.sender.SendTechDigest(sub.Email, html, now); err != nil {
			s.logger.Error("tech send failed", "email", sub.Email, "error", err)
			continue
		}
		sent++
		if err := s.store.UpdateLastSent(sub.Email, now); err != nil {
			s.logger.Warn("last-sent update failed", "email", sub.Email, "error", err)
		}
	}
	s.logger.Info("tech digest run complete", "sent", sent, "total", len(subs))
	return nil
}

// filterByPreferences narrows the pool to the subscriber's chosen topic
// buckets. "all" or an unmatched filter falls back to the whole pool.
func filterByPreferences(pool []models.Article, preferences string) []models.Article {
	base, _, _ := strings.Cut(preferences, "|custom:")
	base = strings.TrimSpace(strings.ToLower(base))
	if base == "" || base == "all" {
		return pool
	}

	wanted := make(map[string]struct{})
	for _, p := range strings.Split(base, ",") {
		if p = strings.TrimSpace(p); p != "" {
			wanted[p] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return pool
	}

	var out []models.Article
	for _, a := range pool {
		grouped := digest.CategorizeTech([]models.Article{a})
		for bucket := range grouped {
			if bucketMatches(bucket, wanted) {
				out = append(out, a)
			}
		}
	}
	return out
}

func bucketMatches(bucket string, wanted map[string]struct{}) bool {
	lower := strings.ToLower(bucket)
	for pref := range wanted {
		if strings.Contains(lower, pref) {
			return true
		}
	}
	return false
}

var _ ScheduleStore = (*store.PgStore)(nil)
