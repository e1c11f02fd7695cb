package models

import "time"

// Digest types a subscriber can choose. "both" receives tech and UPSC.
const (
	DigestTech = "tech"
	DigestUPSC = "upsc"
	DigestBoth = "both"
)

// Article is the common record every source adapter normalizes into.
// It lives only for the duration of one digest build and is never persisted.
// PublishedAt stays a raw string because upstream APIs disagree on formats;
// parsing is best-effort downstream.
type Article struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	URL          string `json:"url"`
	Source       string `json:"source"`
	PublishedAt  string `json:"published_at"`
	Content      string `json:"content,omitempty"`
	CategoryHint string `json:"category_hint,omitempty"`
}

// Subscriber represents a digest recipient.
type Subscriber struct {
	ID             string     `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	Name           string     `db:"name" json:"name"`
	Preferences    string     `db:"preferences" json:"preferences"`
	DigestType     string     `db:"digest_type" json:"digest_type"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	LastDigestSent *time.Time `db:"last_digest_sent" json:"last_digest_sent,omitempty"`
}

// DigestSchedule holds the daily send time ("HH:MM") per digest type.
type DigestSchedule struct {
	ID            string     `db:"id" json:"id"`
	DigestType    string     `db:"digest_type" json:"digest_type"`
	ScheduledTime string     `db:"scheduled_time" json:"scheduled_time"`
	IsActive      bool       `db:"is_active" json:"is_active"`
	LastRun       *time.Time `db:"last_run" json:"last_run,omitempty"`
	NextRun       *time.Time `db:"next_run" json:"next_run,omitempty"`
}

// EmailLog records every send attempt, successful or not.
type EmailLog struct {
	ID             string    `db:"id" json:"id"`
	RecipientEmail string    `db:"recipient_email" json:"recipient_email"`
	DigestType     string    `db:"digest_type" json:"digest_type"`
	Subject        string    `db:"subject" json:"subject"`
	Status         string    `db:"status" json:"status"`
	ErrorMessage   string    `db:"error_message" json:"error_message,omitempty"`
	SentAt         time.Time `db:"sent_at" json:"sent_at"`
}

// ContactMessage is a stored contact-form submission.
type ContactMessage struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Subject   string    `db:"subject" json:"subject"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
