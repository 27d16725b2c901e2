package catalog

import (
	"testing"
	"time"
)

func TestRecordCreatedAtParsesRFC3339(t *testing.T) {
	record := &Record{CreatedDate: "2026-08-20T10:30:00Z"}
	created, ok := record.CreatedAt()
	if !ok {
		t.Fatalf("expected parseable created date")
	}
	if created.Hour() != 10 || created.Minute() != 30 {
		t.Fatalf("unexpected parsed time: %v", created)
	}
}

func TestRecordCreatedAtParsesNaiveTimestamp(t *testing.T) {
	record := &Record{CreatedDate: "2026-08-20T10:30:00"}
	created, ok := record.CreatedAt()
	if !ok {
		t.Fatalf("expected parseable created date")
	}
	if created.Location() != time.UTC {
		t.Fatalf("naive timestamps should be treated as UTC, got %v", created.Location())
	}
}

func TestRecordAge(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	record := &Record{CreatedDate: "2026-08-20T10:00:00Z"}
	if got := record.Age(now); got != 2*time.Hour {
		t.Fatalf("expected age 2h, got %v", got)
	}

	future := &Record{CreatedDate: "2026-08-20T14:00:00Z"}
	if got := future.Age(now); got != 0 {
		t.Fatalf("future records should report zero age, got %v", got)
	}

	garbage := &Record{CreatedDate: "not-a-date"}
	if got := garbage.Age(now); got != 0 {
		t.Fatalf("unparseable records should report zero age, got %v", got)
	}
}

func TestRecordIsPromoted(t *testing.T) {
	record := &Record{}
	if record.IsPromoted() {
		t.Fatal("fresh record should not be promoted")
	}
	record.PromotionStatus = PromotionPromoted
	if !record.IsPromoted() {
		t.Fatal("record with promotion marker should report promoted")
	}
}

func TestRecordCloneIsIndependent(t *testing.T) {
	record := &Record{ID: "a", Tags: []string{"chill"}}
	clone := record.Clone()
	clone.Tags[0] = "loud"
	if record.Tags[0] != "chill" {
		t.Fatalf("clone mutated the original tags: %v", record.Tags)
	}
}

func TestNormalizeGenre(t *testing.T) {
	cases := map[string]string{
		"":              "",
		"  jazz ":       "Jazz",
		"LO-FI HIP HOP": "Lo-Fi Hip Hop",
		"ambient":       "Ambient",
	}
	for input, want := range cases {
		if got := NormalizeGenre(input); got != want {
			t.Fatalf("NormalizeGenre(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTitleFromFilename(t *testing.T) {
	cases := map[string]string{
		"":                        "Untitled",
		"midnight_rain.wav":       "Midnight Rain",
		"sets/late-night.mix.mp3": "Late Night Mix",
		"___.wav":                 "Untitled",
	}
	for input, want := range cases {
		if got := TitleFromFilename(input); got != want {
			t.Fatalf("TitleFromFilename(%q) = %q, want %q", input, got, want)
		}
	}
}
