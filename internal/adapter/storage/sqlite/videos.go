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

// VideoStore persists Video aggregates. Metadata and history travel as JSON
// columns; variants get their own rows so the (video, quality) uniqueness
// invariant is enforced by the schema.
type VideoStore struct {
	store *Store
}

func NewVideoStore(store *Store) *VideoStore {
	return &VideoStore{store: store}
}

func (s *VideoStore) Create(ctx context.Context, v *domain.Video) error {
	metadata, history, err := encodeVideo(v)
	if err != nil {
		return err
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO videos (id, user_id, title, description, status, error_message, metadata, history, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.UserID, v.Title, v.Description, string(v.Status), v.ErrorMessage,
		metadata, history, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

func (s *VideoStore) Get(ctx context.Context, id string) (*domain.Video, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, description, status, error_message, metadata, history, created_at, updated_at
		FROM videos WHERE id = ?`, id)

	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	variants, err := s.listVariants(ctx, id)
	if err != nil {
		return nil, err
	}
	video.Variants = variants
	return video, nil
}

func (s *VideoStore) ListByUser(ctx context.Context, userID string) ([]*domain.Video, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, user_id, title, description, status, error_message, metadata, history, created_at, updated_at
		FROM videos WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []*domain.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		variants, err := s.listVariants(ctx, video.ID)
		if err != nil {
			return nil, err
		}
		video.Variants = variants
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

// UpdateStatus rewrites the mutable aggregate columns. Re-applying an
// identical state is a plain overwrite, keeping retried writes idempotent.
func (s *VideoStore) UpdateStatus(ctx context.Context, v *domain.Video) error {
	metadata, history, err := encodeVideo(v)
	if err != nil {
		return err
	}
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE videos SET status = ?, error_message = ?, metadata = ?, history = ?, updated_at = ?
		WHERE id = ?`,
		string(v.Status), v.ErrorMessage, metadata, history, v.UpdatedAt, v.ID,
	)
	if err != nil {
		return fmt.Errorf("update video status: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *VideoStore) AppendVariant(ctx context.Context, videoID string, variant *domain.VideoVariant) error {
	metadata, err := json.Marshal(variant.Metadata)
	if err != nil {
		return fmt.Errorf("encode variant metadata: %w", err)
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO variants (video_id, quality, url, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		videoID, variant.Quality, variant.URL, string(metadata), variant.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert variant: %w", err)
	}
	return nil
}

func (s *VideoStore) Delete(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *VideoStore) listVariants(ctx context.Context, videoID string) ([]domain.VideoVariant, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT quality, url, metadata, created_at
		FROM variants WHERE video_id = ? ORDER BY created_at`, videoID)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	var variants []domain.VideoVariant
	for rows.Next() {
		var v domain.VideoVariant
		var metadata string
		if err := rows.Scan(&v.Quality, &v.URL, &metadata, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		if err := json.Unmarshal([]byte(metadata), &v.Metadata); err != nil {
			return nil, fmt.Errorf("decode variant metadata: %w", err)
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*domain.Video, error) {
	var v domain.Video
	var status, metadata, history string
	if err := row.Scan(&v.ID, &v.UserID, &v.Title, &v.Description, &status, &v.ErrorMessage,
		&metadata, &history, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	v.Status = domain.VideoStatus(status)
	if err := json.Unmarshal([]byte(metadata), &v.Metadata); err != nil {
		return nil, fmt.Errorf("decode video metadata: %w", err)
	}
	if err := json.Unmarshal([]byte(history), &v.History); err != nil {
		return nil, fmt.Errorf("decode video history: %w", err)
	}
	return &v, nil
}

func encodeVideo(v *domain.Video) (metadata, history string, err error) {
	m, err := json.Marshal(v.Metadata)
	if err != nil {
		return "", "", fmt.Errorf("encode video metadata: %w", err)
	}
	h, err := json.Marshal(v.History)
	if err != nil {
		return "", "", fmt.Errorf("encode video history: %w", err)
	}
	if v.History == nil {
		h = []byte("[]")
	}
	return string(m), string(h), nil
}

var _ port.VideoRepository = (*VideoStore)(nil)
