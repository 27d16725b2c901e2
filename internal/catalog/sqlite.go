package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteDB is the shared connection behind the local backend's stores.
type SQLiteDB struct {
	db   *sql.DB
	path string
}

// OpenSQLite initializes or connects to the local catalog database.
func OpenSQLite(dir string) (*SQLiteDB, error) {
	dbPath := filepath.Join(dir, "catalog.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if err := recordSchemaVersion(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteDB{db: db, path: dbPath}, nil
}

func recordSchemaVersion(db *sql.DB) error {
	var existing int
	err := db.QueryRow(`SELECT version FROM schema_info LIMIT 1`).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.Exec(`INSERT INTO schema_info (version) VALUES (?)`, schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case existing != schemaVersion:
		return fmt.Errorf("catalog schema version %d does not match expected %d; clear %s to rebuild", existing, schemaVersion, "catalog.db")
	default:
		return nil
	}
}

// Close closes the underlying database connection.
func (d *SQLiteDB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Path returns the database file location.
func (d *SQLiteDB) Path() string {
	return d.path
}

// Environment returns a Store bound to one environment's records.
func (d *SQLiteDB) Environment(name string) *SQLiteStore {
	return &SQLiteStore{db: d.db, environment: name}
}

// SQLiteStore implements Store against the shared local database.
type SQLiteStore struct {
	db          *sql.DB
	environment string
}

const recordColumns = "id, created_date, status, promotion_status, promoted_at, promoted_from, environment, title, artist, filename, file_url, file_size, duration, format, genre, description, tags_json"

func (s *SQLiteStore) Query(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+recordColumns+` FROM artifact_records WHERE environment = ? AND id = ? ORDER BY created_date LIMIT 1`,
		s.environment,
		id,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}
	return record, nil
}

func (s *SQLiteStore) ScanPromotable(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM artifact_records
         WHERE environment = ? AND status = ? AND promotion_status IS NULL
         ORDER BY created_date`,
		s.environment,
		StatusProcessed,
	)
	if err != nil {
		return nil, fmt.Errorf("scan promotable records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Put(ctx context.Context, record *Record) error {
	if record == nil {
		return errors.New("record is nil")
	}

	tagsJSON, err := marshalTags(record.Tags)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO artifact_records (
            environment, id, created_date, status, promotion_status, promoted_at,
            promoted_from, title, artist, filename, file_url, file_size, duration,
            format, genre, description, tags_json, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.environment,
		record.ID,
		record.CreatedDate,
		record.Status,
		nullableString(record.PromotionStatus),
		nullableString(record.PromotedAt),
		nullableString(record.PromotedFrom),
		nullableString(record.Title),
		nullableString(record.Artist),
		nullableString(record.Filename),
		nullableString(record.FileURL),
		record.FileSize,
		record.Duration,
		nullableString(record.Format),
		nullableString(record.Genre),
		nullableString(record.Description),
		nullableString(tagsJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, key Key, fields FieldSet) error {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 6)

	if fields.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*fields.Status))
	}
	if fields.PromotionStatus != nil {
		sets = append(sets, "promotion_status = ?")
		args = append(args, *fields.PromotionStatus)
	}
	if fields.PromotedAt != nil {
		sets = append(sets, "promoted_at = ?")
		args = append(args, fields.PromotedAt.UTC().Format(time.RFC3339))
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC().Format(time.RFC3339Nano))
	args = append(args, s.environment, key.ID, key.CreatedDate)

	query := "UPDATE artifact_records SET "
	for i, set := range sets {
		if i > 0 {
			query += ", "
		}
		query += set
	}
	query += " WHERE environment = ? AND id = ? AND created_date = ?"

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update record: no record for %s/%s", key.ID, key.CreatedDate)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key Key) error {
	_, err := s.db.ExecContext(
		ctx,
		`DELETE FROM artifact_records WHERE environment = ? AND id = ? AND created_date = ?`,
		s.environment,
		key.ID,
		key.CreatedDate,
	)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id              string
		createdDate     string
		statusStr       string
		promotionStatus sql.NullString
		promotedAt      sql.NullString
		promotedFrom    sql.NullString
		environment     sql.NullString
		title           sql.NullString
		artist          sql.NullString
		filename        sql.NullString
		fileURL         sql.NullString
		fileSize        int64
		duration        float64
		format          sql.NullString
		genre           sql.NullString
		description     sql.NullString
		tagsJSON        sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&createdDate,
		&statusStr,
		&promotionStatus,
		&promotedAt,
		&promotedFrom,
		&environment,
		&title,
		&artist,
		&filename,
		&fileURL,
		&fileSize,
		&duration,
		&format,
		&genre,
		&description,
		&tagsJSON,
	); err != nil {
		return nil, err
	}

	record := &Record{
		ID:              id,
		CreatedDate:     createdDate,
		Status:          Status(statusStr),
		PromotionStatus: promotionStatus.String,
		PromotedAt:      promotedAt.String,
		PromotedFrom:    promotedFrom.String,
		Environment:     environment.String,
		Title:           title.String,
		Artist:          artist.String,
		Filename:        filename.String,
		FileURL:         fileURL.String,
		FileSize:        fileSize,
		Duration:        duration,
		Format:          format.String,
		Genre:           genre.String,
		Description:     description.String,
	}

	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &record.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	return record, nil
}

func marshalTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "", nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(data), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
