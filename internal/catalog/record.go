package catalog

import (
	"strings"
	"time"
)

// Status represents the upstream processing state of an artifact record.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
)

// PromotionPromoted is the only value ever written to PromotionStatus. The
// marker is monotonic: set once on successful promotion, never cleared.
const PromotionPromoted = "promoted"

// Key is the composite identity of a record. Immutable once created.
type Key struct {
	ID          string
	CreatedDate string
}

// Record is one audio artifact's metadata in a single environment.
// CreatedDate and PromotedAt are ISO-8601 strings to match the wire format
// shared with the upstream ingestion pipeline.
type Record struct {
	ID              string   `json:"id" dynamodbav:"id"`
	CreatedDate     string   `json:"createdDate" dynamodbav:"createdDate"`
	Status          Status   `json:"status" dynamodbav:"status"`
	PromotionStatus string   `json:"promotionStatus,omitempty" dynamodbav:"promotionStatus,omitempty"`
	PromotedAt      string   `json:"promotedAt,omitempty" dynamodbav:"promotedAt,omitempty"`
	PromotedFrom    string   `json:"promotedFrom,omitempty" dynamodbav:"promotedFrom,omitempty"`
	Environment     string   `json:"environment,omitempty" dynamodbav:"environment,omitempty"`
	Title           string   `json:"title" dynamodbav:"title"`
	Artist          string   `json:"artist,omitempty" dynamodbav:"artist,omitempty"`
	Filename        string   `json:"filename" dynamodbav:"filename"`
	FileURL         string   `json:"fileUrl" dynamodbav:"fileUrl"`
	FileSize        int64    `json:"fileSize" dynamodbav:"fileSize"`
	Duration        float64  `json:"duration" dynamodbav:"duration"`
	Format          string   `json:"format,omitempty" dynamodbav:"format,omitempty"`
	Genre           string   `json:"genre,omitempty" dynamodbav:"genre,omitempty"`
	Description     string   `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Tags            []string `json:"tags,omitempty" dynamodbav:"tags,omitempty"`
}

// Key returns the record's composite identity.
func (r *Record) Key() Key {
	return Key{ID: r.ID, CreatedDate: r.CreatedDate}
}

// IsPromoted reports whether the promotion marker has been set.
func (r *Record) IsPromoted() bool {
	return r.PromotionStatus != ""
}

// CreatedAt parses the record's creation timestamp. Records written by the
// upstream pipeline use RFC 3339 with either a Z or numeric offset.
func (r *Record) CreatedAt() (time.Time, bool) {
	raw := strings.TrimSpace(r.CreatedDate)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// Age returns how long ago the record was created relative to now. Records
// with an unparseable creation date report zero age so grace-period filters
// exclude them rather than promoting on garbage input.
func (r *Record) Age(now time.Time) time.Duration {
	created, ok := r.CreatedAt()
	if !ok {
		return 0
	}
	age := now.Sub(created)
	if age < 0 {
		return 0
	}
	return age
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	cp := *r
	if r.Tags != nil {
		cp.Tags = append([]string{}, r.Tags...)
	}
	return &cp
}
