package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/croftbox/vidpipe/internal/domain"
	"github.com/croftbox/vidpipe/internal/port"
)

type AnnotationStore struct {
	store *Store
}

func NewAnnotationStore(store *Store) *AnnotationStore {
	return &AnnotationStore{store: store}
}

// annotationPayload is the JSON column shape; exactly one of the two
// bodies is set depending on the annotation type.
type annotationPayload struct {
	Drawing   *domain.DrawingPayload   `json:"drawing,omitempty"`
	VoiceOver *domain.VoiceOverPayload `json:"voice_over,omitempty"`
}

func (s *AnnotationStore) Create(ctx context.Context, a *domain.Annotation) error {
	payload, err := json.Marshal(annotationPayload{Drawing: a.Drawing, VoiceOver: a.VoiceOver})
	if err != nil {
		return fmt.Errorf("encode annotation payload: %w", err)
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO annotations (id, video_id, user_id, type, ts, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.VideoID, a.UserID, string(a.Type), a.Timestamp, string(payload), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert annotation: %w", err)
	}
	return nil
}

func (s *AnnotationStore) Get(ctx context.Context, id string) (*domain.Annotation, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, video_id, user_id, type, ts, payload, created_at, updated_at
		FROM annotations WHERE id = ?`, id)
	a, err := scanAnnotation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *AnnotationStore) ListByVideo(ctx context.Context, videoID string) ([]*domain.Annotation, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, video_id, user_id, type, ts, payload, created_at, updated_at
		FROM annotations WHERE video_id = ? ORDER BY ts, created_at`, videoID)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	defer rows.Close()

	var annotations []*domain.Annotation
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		annotations = append(annotations, a)
	}
	return annotations, rows.Err()
}

func (s *AnnotationStore) Update(ctx context.Context, a *domain.Annotation) error {
	payload, err := json.Marshal(annotationPayload{Drawing: a.Drawing, VoiceOver: a.VoiceOver})
	if err != nil {
		return fmt.Errorf("encode annotation payload: %w", err)
	}
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE annotations SET ts = ?, payload = ?, updated_at = ? WHERE id = ?`,
		a.Timestamp, string(payload), a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update annotation: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *AnnotationStore) Delete(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, `DELETE FROM annotations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete annotation: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanAnnotation(row rowScanner) (*domain.Annotation, error) {
	var a domain.Annotation
	var typ, payload string
	if err := row.Scan(&a.ID, &a.VideoID, &a.UserID, &typ, &a.Timestamp, &payload, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Type = domain.AnnotationType(typ)
	var p annotationPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, fmt.Errorf("decode annotation payload: %w", err)
	}
	a.Drawing = p.Drawing
	a.VoiceOver = p.VoiceOver
	return &a, nil
}

var _ port.AnnotationRepository = (*AnnotationStore)(nil)
