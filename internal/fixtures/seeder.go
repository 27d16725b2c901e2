package fixtures

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"lathe/internal/blob"
	"lathe/internal/catalog"
	"lathe/internal/config"
	"lathe/internal/logging"
	"lathe/internal/services/audioproc"
)

// Processor enriches a staged object with extracted audio metadata.
type Processor interface {
	Process(ctx context.Context, artifactID, sourceKey string) (*audioproc.Result, error)
}

// SeedOptions control the shape of a seeded staging artifact. Zero values
// fall back to a small, valid, promotable track.
type SeedOptions struct {
	ID          string
	Title       string
	Artist      string
	Genre       string
	Description string
	Tags        []string
	Duration    float64
	FileSize    int64
	Status      catalog.Status
	CreatedAt   time.Time
}

// Seeder plants staging artifacts for end-to-end exercises and tears them
// down again. It is the only code path that deletes records or objects.
type Seeder struct {
	staging   catalog.Store
	blobs     blob.Store
	processor Processor
	bucket    string
	envName   string
	keyPrefix string
	clock     func() time.Time
	logger    *slog.Logger
}

// NewSeeder builds a seeder over the staging environment.
func NewSeeder(cfg *config.Config, staging catalog.Store, blobs blob.Store, logger *slog.Logger) *Seeder {
	return &Seeder{
		staging:   staging,
		blobs:     blobs,
		bucket:    cfg.Staging.Bucket,
		envName:   cfg.Staging.Name,
		keyPrefix: cfg.Promotion.KeyPrefix,
		clock:     time.Now,
		logger:    logging.NewComponentLogger(logger, "seeder"),
	}
}

// WithClock overrides the seeder's time source.
func (s *Seeder) WithClock(clock func() time.Time) *Seeder {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// WithProcessor attaches an audio-processing collaborator. When set, seeded
// records carry the processor's extracted metadata instead of the locally
// generated values.
func (s *Seeder) WithProcessor(processor Processor) *Seeder {
	s.processor = processor
	return s
}

// Seed writes one staging artifact: a generated WAV object plus its record.
// The WAV body matches the requested duration; FileSize on the record may
// deliberately differ to exercise validation bounds.
func (s *Seeder) Seed(ctx context.Context, opts SeedOptions) (*catalog.Record, error) {
	id := strings.TrimSpace(opts.ID)
	if id == "" {
		id = "test-" + uuid.NewString()
	}
	if opts.Duration <= 0 {
		opts.Duration = 5
	}
	if opts.Status == "" {
		opts.Status = catalog.StatusProcessed
	}
	createdAt := opts.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clock()
	}

	filename := id + ".wav"
	body := WAVBytes(opts.Duration)
	key := s.keyPrefix + id + "/" + filename
	if err := s.blobs.Put(ctx, s.bucket, key, body, map[string]string{
		"artifact-id": id,
		"seeded":      "true",
	}); err != nil {
		return nil, fmt.Errorf("seed object: %w", err)
	}

	fileSize := opts.FileSize
	if fileSize == 0 {
		fileSize = int64(len(body))
	}
	title := opts.Title
	if title == "" {
		title = catalog.TitleFromFilename(filename)
	}
	duration := opts.Duration
	artist := opts.Artist
	genre := opts.Genre

	if s.processor != nil {
		processed, err := s.processor.Process(ctx, id, key)
		if err != nil {
			s.logger.Warn("audio processing failed; keeping generated metadata",
				logging.String("artifact_id", id),
				logging.Error(err))
		} else {
			if m := processed.Metadata; m != nil {
				if m.Duration > 0 {
					duration = m.Duration
				}
				if artist == "" {
					artist = m.Artist
				}
				if genre == "" {
					genre = m.Genre
				}
			}
			if v := processed.Validation; v != nil && v.FileSize > 0 && opts.FileSize == 0 {
				fileSize = v.FileSize
			}
		}
	}

	record := &catalog.Record{
		ID:          id,
		CreatedDate: createdAt.UTC().Format(time.RFC3339),
		Status:      opts.Status,
		Environment: s.envName,
		Title:       title,
		Artist:      artist,
		Filename:    filename,
		FileURL:     fmt.Sprintf("s3://%s/%s", s.bucket, key),
		FileSize:    fileSize,
		Duration:    duration,
		Format:      "wav",
		Genre:       catalog.NormalizeGenre(genre),
		Description: opts.Description,
		Tags:        opts.Tags,
	}
	if err := s.staging.Put(ctx, record); err != nil {
		return nil, fmt.Errorf("seed record: %w", err)
	}

	s.logger.Info("seeded staging artifact",
		logging.String("artifact_id", id),
		logging.String("key", key),
		logging.Int64("file_size", fileSize))
	return record, nil
}

// Cleanup removes a seeded artifact's record and objects from staging.
func (s *Seeder) Cleanup(ctx context.Context, artifactID string) error {
	record, err := s.staging.Query(ctx, artifactID)
	if err != nil {
		return fmt.Errorf("look up record: %w", err)
	}
	if record != nil {
		if err := s.staging.Delete(ctx, record.Key()); err != nil {
			return fmt.Errorf("delete record: %w", err)
		}
	}

	objects, err := s.blobs.List(ctx, s.bucket, s.keyPrefix+artifactID+"/")
	if err != nil {
		return fmt.Errorf("list objects: %w", err)
	}
	for _, object := range objects {
		if err := s.blobs.Delete(ctx, s.bucket, object.Key); err != nil {
			return fmt.Errorf("delete object %s: %w", object.Key, err)
		}
	}

	s.logger.Info("cleaned up staging artifact",
		logging.String("artifact_id", artifactID),
		logging.Int("objects", len(objects)))
	return nil
}
