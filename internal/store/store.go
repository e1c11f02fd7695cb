package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/farizanjum/newsdigest/pkg/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

type PgStore struct {
	db *sqlx.DB
}

func NewPgStore(db *sql.DB) *PgStore {
	return &PgStore{db: sqlx.NewDb(db, "postgres")}
}

func RunMigrations(db *sql.DB) error {
	initSQL := `
CREATE TABLE IF NOT EXISTS subscribers(
  id UUID PRIMARY KEY,
  email TEXT UNIQUE NOT NULL,
  name TEXT NOT NULL,
  preferences TEXT NOT NULL DEFAULT 'all',
  digest_type TEXT NOT NULL DEFAULT 'tech',
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TIMESTAMP NOT NULL DEFAULT NOW(),
  last_digest_sent TIMESTAMP
);

CREATE TABLE IF NOT EXISTS digest_schedules(
  id UUID PRIMARY KEY,
  digest_type TEXT UNIQUE NOT NULL,
  scheduled_time TEXT NOT NULL,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  last_run TIMESTAMP,
  next_run TIMESTAMP
);

CREATE TABLE IF NOT EXISTS email_logs(
  id UUID PRIMARY KEY,
  recipient_email TEXT NOT NULL,
  digest_type TEXT NOT NULL,
  subject TEXT NOT NULL,
  status TEXT NOT NULL,
  error_message TEXT NOT NULL DEFAULT '',
  sent_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS contact_messages(
  id UUID PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  subject TEXT NOT NULL,
  message TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_subscribers_active ON subscribers(is_active, digest_type);
CREATE INDEX IF NOT EXISTS idx_email_logs_recipient ON email_logs(recipient_email);
`
	_, err := db.Exec(initSQL)
	return err
}

// CreateSubscriber inserts a new subscriber or reactivates an existing row
// for the same email (resubscribe keeps the original id).
func (p *PgStore) CreateSubscriber(s *models.Subscriber) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	stmt := `
INSERT INTO subscribers (id, email, name, preferences, digest_type, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,TRUE,$6)
ON CONFLICT (email) DO UPDATE SET
 name=EXCLUDED.name,
 preferences=EXCLUDED.preferences,
 digest_type=EXCLUDED.digest_type,
 is_active=TRUE
`
	_, err := p.db.Exec(stmt, s.ID, s.Email, s.Name, s.Preferences, s.DigestType, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert subscriber %s: %w", s.Email, err)
	}
	return nil
}

func (p *PgStore) GetSubscriber(email string) (*models.Subscriber, error) {
	var s models.Subscriber
	query := `
SELECT id, email, name, preferences, digest_type, is_active, created_at, last_digest_sent
FROM subscribers
WHERE email = $1
`
	if err := p.db.Get(&s, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListActive returns active subscribers receiving the given digest type,
// including "both" subscribers.
func (p *PgStore) ListActive(digestType string) ([]*models.Subscriber, error) {
	rows := []*models.Subscriber{}
	query := `
SELECT id, email, name, preferences, digest_type, is_active, created_at, last_digest_sent
FROM subscribers
WHERE is_active = TRUE AND digest_type IN ($1, 'both')
ORDER BY created_at
`
	err := p.db.Select(&rows, query, digestType)
	return rows, err
}

func (p *PgStore) ListSubscribers(limit int) ([]*models.Subscriber, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows := []*models.Subscriber{}
	query := `
SELECT id, email, name, preferences, digest_type, is_active, created_at, last_digest_sent
FROM subscribers
ORDER BY created_at DESC
LIMIT $1
`
	err := p.db.Select(&rows, query, limit)
	return rows, err
}

func (p *PgStore) CountActive(digestType string) (int, error) {
	var n int
	var err error
	if digestType == "" {
		err = p.db.Get(&n, `SELECT COUNT(*) FROM subscribers WHERE is_active = TRUE`)
	} else {
		err = p.db.Get(&n, `SELECT COUNT(*) FROM subscribers WHERE is_active = TRUE AND digest_type IN ($1, 'both')`, digestType)
	}
	return n, err
}

func (p *PgStore) UpdatePreferences(email, preferences, digestType string) error {
	res, err := p.db.Exec(
		`UPDATE subscribers SET preferences = $1, digest_type = $2 WHERE email = $3`,
		preferences, digestType, email)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PgStore) DeactivateSubscriber(email string) error {
	res, err := p.db.Exec(`UPDATE subscribers SET is_active = FALSE WHERE email = $1`, email)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PgStore) UpdateLastSent(email string, at time.Time) error {
	_, err := p.db.Exec(`UPDATE subscribers SET last_digest_sent = $1 WHERE email = $2`, at, email)
	return err
}

// GetSchedule returns the schedule row for a digest type, or ErrNotFound.
func (p *PgStore) GetSchedule(digestType string) (*models.DigestSchedule, error) {
	var s models.DigestSchedule
	query := `
SELECT id, digest_type, scheduled_time, is_active, last_run, next_run
FROM digest_schedules
WHERE digest_type = $1
`
	if err := p.db.Get(&s, query, digestType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (p *PgStore) ListSchedules() ([]*models.DigestSchedule, error) {
	rows := []*models.DigestSchedule{}
	query := `
SELECT id, digest_type, scheduled_time, is_active, last_run, next_run
FROM digest_schedules
WHERE is_active = TRUE
ORDER BY digest_type
`
	err := p.db.Select(&rows, query)
	return rows, err
}

// SetSchedule upserts the daily send time ("HH:MM") for a digest type.
func (p *PgStore) SetSchedule(digestType, scheduledTime string) error {
	stmt := `
INSERT INTO digest_schedules (id, digest_type, scheduled_time, is_active)
VALUES ($1,$2,$3,TRUE)
ON CONFLICT (digest_type) DO UPDATE SET
 scheduled_time=EXCLUDED.scheduled_time,
 is_active=TRUE
`
	_, err := p.db.Exec(stmt, uuid.New().String(), digestType, scheduledTime)
	return err
}

func (p *PgStore) MarkScheduleRun(digestType string, lastRun, nextRun time.Time) error {
	_, err := p.db.Exec(
		`UPDATE digest_schedules SET last_run = $1, next_run = $2 WHERE digest_type = $3`,
		lastRun, nextRun, digestType)
	return err
}

func (p *PgStore) LogEmail(l *models.EmailLog) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.SentAt.IsZero() {
		l.SentAt = time.Now().UTC()
	}
	_, err := p.db.Exec(
		`INSERT INTO email_logs (id, recipient_email, digest_type, subject, status, error_message, sent_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		l.ID, l.RecipientEmail, l.DigestType, l.Subject, l.Status, l.ErrorMessage, l.SentAt)
	return err
}

func (p *PgStore) CountEmailsSentSince(since time.Time) (int, error) {
	var n int
	err := p.db.Get(&n,
		`SELECT COUNT(*) FROM email_logs WHERE status = 'sent' AND sent_at >= $1`, since)
	return n, err
}

func (p *PgStore) SaveContactMessage(m *models.ContactMessage) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.Exec(
		`INSERT INTO contact_messages (id, name, email, subject, message, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		m.ID, m.Name, m.Email, m.Subject, m.Message, m.CreatedAt)
	return err
}
