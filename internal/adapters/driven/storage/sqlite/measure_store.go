package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
)

// ==================== Measure Store ====================

// measureStore implements driven.MeasureStore.
type measureStore struct {
	store *Store
}

var _ driven.MeasureStore = (*measureStore)(nil)

const measureColumns = `id, source, external_id, title, level, status, introduced_at, scheduled_for,
	topic_tags, summary_short, summary_long, canonical_key, updated_at`

// Get retrieves a measure by ID.
func (s *measureStore) Get(ctx context.Context, id string) (*domain.Measure, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+measureColumns+` FROM measures WHERE id = ?`, id)
	return scanMeasure(row)
}

// FindByExternalID retrieves a measure by (source, external_id).
func (s *measureStore) FindByExternalID(ctx context.Context, source domain.SourceSystem, externalID string) (*domain.Measure, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+measureColumns+` FROM measures WHERE source = ? AND external_id = ?`,
		string(source), externalID)
	return scanMeasure(row)
}

// FindByCanonicalKey retrieves a measure by canonical key.
func (s *measureStore) FindByCanonicalKey(ctx context.Context, key string) (*domain.Measure, error) {
	if key == "" {
		return nil, domain.ErrNotFound
	}
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+measureColumns+` FROM measures WHERE canonical_key = ?`, key)
	return scanMeasure(row)
}

// Insert creates a measure and its primary source link atomically.
func (s *measureStore) Insert(ctx context.Context, m *domain.Measure, primary *domain.MeasureSource) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.UpdatedAt = s.store.now()

	tagsJSON, err := json.Marshal(nonNilTags(m.TopicTags))
	if err != nil {
		return fmt.Errorf("marshalling topic tags: %w", err)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO measures (`+measureColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, string(m.Source), m.ExternalID, m.Title, string(m.Level), string(m.Status),
		nullTime(m.IntroducedAt), nullTime(m.ScheduledFor), string(tagsJSON),
		m.SummaryShort, m.SummaryLong, nullString(m.CanonicalKey), formatTime(m.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("measure %s/%s: %w", m.Source, m.ExternalID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("inserting measure: %w", err)
	}

	if primary != nil {
		primary.MeasureID = m.ID
		primary.Primary = true
		if err := insertMeasureSource(ctx, tx, primary, m.UpdatedAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Update writes a measure's mutable fields, appending a status event when given.
func (s *measureStore) Update(ctx context.Context, m *domain.Measure, event *domain.MeasureStatusEvent) error {
	m.UpdatedAt = s.store.now()

	tagsJSON, err := json.Marshal(nonNilTags(m.TopicTags))
	if err != nil {
		return fmt.Errorf("marshalling topic tags: %w", err)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
		UPDATE measures SET
			title = ?, level = ?, status = ?, introduced_at = ?, scheduled_for = ?,
			topic_tags = ?, summary_short = ?, summary_long = ?, canonical_key = ?, updated_at = ?
		WHERE id = ?
	`, m.Title, string(m.Level), string(m.Status), nullTime(m.IntroducedAt), nullTime(m.ScheduledFor),
		string(tagsJSON), m.SummaryShort, m.SummaryLong, nullString(m.CanonicalKey),
		formatTime(m.UpdatedAt), m.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("measure %s canonical key %s: %w", m.ID, m.CanonicalKey, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("updating measure: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}

	if event != nil {
		event.MeasureID = m.ID
		if event.EffectiveAt.IsZero() {
			event.EffectiveAt = m.UpdatedAt
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO measure_status_events (measure_id, status, effective_at, source_url)
			VALUES (?, ?, ?, ?)
		`, event.MeasureID, string(event.Status), formatTime(event.EffectiveAt), event.SourceURL); err != nil {
			return fmt.Errorf("inserting status event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// List returns measures, most recently updated first.
func (s *measureStore) List(ctx context.Context, source domain.SourceSystem, limit int) ([]domain.Measure, error) {
	query := `SELECT ` + measureColumns + ` FROM measures`
	var args []any
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, string(source))
	}
	query += ` ORDER BY updated_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying measures: %w", err)
	}
	defer rows.Close()

	var measures []domain.Measure //nolint:prealloc // size unknown from query
	for rows.Next() {
		m, err := scanMeasure(rows)
		if err != nil {
			return nil, err
		}
		measures = append(measures, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating measures: %w", err)
	}
	return measures, nil
}

// Sources returns the links attached to a measure, primary first.
func (s *measureStore) Sources(ctx context.Context, measureID string) ([]domain.MeasureSource, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, measure_id, label, url, content_type, is_primary
		FROM measure_sources WHERE measure_id = ?
		ORDER BY is_primary DESC, created_at, id
	`, measureID)
	if err != nil {
		return nil, fmt.Errorf("querying measure sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.MeasureSource
	for rows.Next() {
		var src domain.MeasureSource
		var contentType string
		var primary int
		if err := rows.Scan(&src.ID, &src.MeasureID, &src.Label, &src.URL, &contentType, &primary); err != nil {
			return nil, fmt.Errorf("scanning measure source: %w", err)
		}
		src.ContentType = domain.ContentType(contentType)
		src.Primary = primary == 1
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating measure sources: %w", err)
	}
	return sources, nil
}

// StatusEvents returns the status timeline of a measure, oldest first.
func (s *measureStore) StatusEvents(ctx context.Context, measureID string) ([]domain.MeasureStatusEvent, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT measure_id, status, effective_at, source_url
		FROM measure_status_events WHERE measure_id = ?
		ORDER BY effective_at, id
	`, measureID)
	if err != nil {
		return nil, fmt.Errorf("querying status events: %w", err)
	}
	defer rows.Close()

	var events []domain.MeasureStatusEvent
	for rows.Next() {
		var ev domain.MeasureStatusEvent
		var status, effectiveAt string
		if err := rows.Scan(&ev.MeasureID, &status, &effectiveAt, &ev.SourceURL); err != nil {
			return nil, fmt.Errorf("scanning status event: %w", err)
		}
		ev.Status = domain.MeasureStatus(status)
		if ev.EffectiveAt, err = parseTime(effectiveAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status events: %w", err)
	}
	return events, nil
}

// Count returns the number of stored measures.
func (s *measureStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM measures").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting measures: %w", err)
	}
	return n, nil
}

func insertMeasureSource(ctx context.Context, tx *sql.Tx, src *domain.MeasureSource, createdAt time.Time) error {
	if src.ID == "" {
		src.ID = uuid.New().String()
	}
	if src.ContentType == "" {
		src.ContentType = domain.ContentHTML
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO measure_sources (id, measure_id, label, url, content_type, is_primary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, src.ID, src.MeasureID, src.Label, src.URL, string(src.ContentType),
		boolToInt(src.Primary), formatTime(createdAt))
	if err != nil {
		return fmt.Errorf("inserting measure source: %w", err)
	}
	return nil
}

// scanMeasure scans a single measure row.
func scanMeasure(row scanner) (*domain.Measure, error) {
	var m domain.Measure
	var source, level, status, tagsJSON, updatedAt string
	var introducedAt, scheduledFor, canonicalKey sql.NullString

	if err := row.Scan(&m.ID, &source, &m.ExternalID, &m.Title, &level, &status,
		&introducedAt, &scheduledFor, &tagsJSON, &m.SummaryShort, &m.SummaryLong,
		&canonicalKey, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning measure: %w", err)
	}

	m.Source = domain.SourceSystem(source)
	m.Level = domain.JurisdictionLevel(level)
	m.Status = domain.ParseMeasureStatus(status)
	m.CanonicalKey = canonicalKey.String

	var err error
	if m.IntroducedAt, err = parseNullTime(introducedAt); err != nil {
		return nil, err
	}
	if m.ScheduledFor, err = parseNullTime(scheduledFor); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &m.TopicTags); err != nil {
		return nil, fmt.Errorf("unmarshalling topic tags: %w", err)
	}
	if len(m.TopicTags) == 0 {
		m.TopicTags = nil
	}
	return &m, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
