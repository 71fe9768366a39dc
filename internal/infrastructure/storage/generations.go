package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"DigiiBuz/internal/domain"
	"DigiiBuz/internal/ports"
)

var _ ports.GenerationRepository = (*Store)(nil)

var generationColumns = []string{
	"id", "wordpress_config_id", "category_id", "keyword_id", "locality_id",
	"status", "title", "content", "error_message", "wordpress_post_id",
	"published_at", "scheduled_at", "created_at", "updated_at",
}

// CreateGeneration inserts a pending record.
func (s *Store) CreateGeneration(ctx context.Context, in domain.NewGeneration) (domain.Generation, error) {
	if in.WordPressConfigID == "" {
		return domain.Generation{}, fmt.Errorf("wordpress config id is required: %w", domain.ErrInvalidInput)
	}

	now := s.now()
	id := uuid.NewString()
	_, err := s.sb.Insert("tome_generations").
		Columns("id", "wordpress_config_id", "category_id", "keyword_id", "locality_id", "status", "created_at", "updated_at").
		Values(id, in.WordPressConfigID, in.CategoryID, in.KeywordID, in.LocalityID, string(domain.StatusPending), formatTime(now), formatTime(now)).
		ExecContext(ctx)
	if err != nil {
		return domain.Generation{}, fmt.Errorf("insert generation: %w", err)
	}

	return s.GetGeneration(ctx, id)
}

// GetGeneration loads a record by id.
func (s *Store) GetGeneration(ctx context.Context, id string) (domain.Generation, error) {
	row := s.sb.Select(generationColumns...).
		From("tome_generations").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx)

	g, err := scanGeneration(row)
	if err != nil {
		return domain.Generation{}, notFound(err, "generation", id)
	}
	return g, nil
}

// TransitionGeneration is a compare-and-swap on the status column.
func (s *Store) TransitionGeneration(ctx context.Context, id string, from []domain.GenerationStatus, to domain.GenerationStatus, patch domain.GenerationPatch) (domain.Generation, error) {
	if len(from) == 0 {
		return domain.Generation{}, fmt.Errorf("no source status for %s: %w", to, domain.ErrInvalidTransition)
	}

	guard := make([]string, 0, len(from))
	for _, status := range from {
		if !domain.CanTransition(status, to) {
			return domain.Generation{}, fmt.Errorf("%s -> %s: %w", status, to, domain.ErrInvalidTransition)
		}
		guard = append(guard, string(status))
	}

	now := s.now()
	update := s.sb.Update("tome_generations").
		Set("status", string(to)).
		Set("updated_at", formatTime(now)).
		Where(sq.Eq{"id": id, "status": guard})

	if patch.Title != nil {
		update = update.Set("title", *patch.Title)
	}
	if patch.Content != nil {
		update = update.Set("content", *patch.Content)
	}
	if patch.ErrorMessage != nil {
		update = update.Set("error_message", domain.Truncate(*patch.ErrorMessage, domain.MaxErrorMessageLength))
	} else if patch.ClearError {
		update = update.Set("error_message", "")
	}
	if patch.WordPressPostID != nil {
		update = update.Set("wordpress_post_id", *patch.WordPressPostID)
	}
	if patch.PublishedAt != nil {
		update = update.Set("published_at", formatTime(*patch.PublishedAt))
	}
	if patch.ScheduledAt != nil {
		update = update.Set("scheduled_at", formatTime(*patch.ScheduledAt))
	}
	if to == domain.StatusPublished {
		update = update.Where("TRIM(content) <> ''")
	}

	res, err := update.ExecContext(ctx)
	if err != nil {
		return domain.Generation{}, fmt.Errorf("update generation %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Generation{}, fmt.Errorf("rows affected: %w", err)
	}

	current, err := s.GetGeneration(ctx, id)
	if err != nil {
		return domain.Generation{}, err
	}
	if affected == 0 {
		if to == domain.StatusPublished && !current.HasContent() {
			return current, fmt.Errorf("generation %s: %w", id, domain.ErrNoContent)
		}
		return current, fmt.Errorf("generation %s is %s, cannot move to %s: %w", id, current.Status, to, domain.ErrConflict)
	}
	return current, nil
}

// LastGenerationAt returns the creation time of the newest record of a site.
func (s *Store) LastGenerationAt(ctx context.Context, configID string) (*time.Time, error) {
	var raw sql.NullString
	err := s.sb.Select("created_at").
		From("tome_generations").
		Where(sq.Eq{"wordpress_config_id": configID}).
		OrderBy("created_at DESC").
		Limit(1).
		QueryRowContext(ctx).
		Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last generation: %w", err)
	}
	return parseTimePtr(raw)
}

// ListDueScheduled returns scheduled records whose time has come.
func (s *Store) ListDueScheduled(ctx context.Context, now time.Time) ([]domain.Generation, error) {
	query := s.sb.Select(generationColumns...).
		From("tome_generations").
		Where(sq.Eq{"status": string(domain.StatusScheduled)}).
		Where(sq.LtOrEq{"scheduled_at": formatTime(now)}).
		OrderBy("scheduled_at")

	result, err := s.queryGenerations(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query scheduled: %w", err)
	}
	return result, nil
}

// ListStaleProcessing returns records left in processing since before cutoff.
func (s *Store) ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]domain.Generation, error) {
	query := s.sb.Select(generationColumns...).
		From("tome_generations").
		Where(sq.Eq{"status": string(domain.StatusProcessing)}).
		Where(sq.Lt{"updated_at": formatTime(cutoff)}).
		OrderBy("updated_at")

	result, err := s.queryGenerations(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query stale processing: %w", err)
	}
	return result, nil
}

func (s *Store) queryGenerations(ctx context.Context, query sq.SelectBuilder) ([]domain.Generation, error) {
	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, err
	}

	var result []domain.Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		result = append(result, g)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (domain.Generation, error) {
	var (
		g                      domain.Generation
		status                 string
		postID                 sql.NullInt64
		publishedAt, scheduled sql.NullString
		createdAt, updatedAt   string
	)
	if err := row.Scan(
		&g.ID, &g.WordPressConfigID, &g.CategoryID, &g.KeywordID, &g.LocalityID,
		&status, &g.Title, &g.Content, &g.ErrorMessage, &postID,
		&publishedAt, &scheduled, &createdAt, &updatedAt,
	); err != nil {
		return domain.Generation{}, err
	}

	g.Status = domain.GenerationStatus(status)
	g.WordPressPostID = int64Ptr(postID)

	var err error
	if g.PublishedAt, err = parseTimePtr(publishedAt); err != nil {
		return domain.Generation{}, fmt.Errorf("published_at: %w", err)
	}
	if g.ScheduledAt, err = parseTimePtr(scheduled); err != nil {
		return domain.Generation{}, fmt.Errorf("scheduled_at: %w", err)
	}
	if g.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Generation{}, fmt.Errorf("created_at: %w", err)
	}
	if g.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Generation{}, fmt.Errorf("updated_at: %w", err)
	}
	return g, nil
}
