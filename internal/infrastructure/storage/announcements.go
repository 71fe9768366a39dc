package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"DigiiBuz/internal/domain"
	"DigiiBuz/internal/ports"
)

var _ ports.AnnouncementRepository = (*Store)(nil)

// GetAnnouncement loads an announcement by id.
func (s *Store) GetAnnouncement(ctx context.Context, id string) (domain.Announcement, error) {
	var (
		a           domain.Announcement
		images      string
		publishDate sql.NullString
		postID      sql.NullInt64
		divipixel   int
		updatedAt   string
	)
	err := s.sb.Select(
		"id", "user_id", "wordpress_config_id", "title", "description", "images",
		"seo_title", "meta_description", "seo_slug", "publish_date", "status",
		"wordpress_post_id", "wordpress_category_id", "is_divipixel", "error_message", "updated_at",
	).
		From("announcements").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(
			&a.ID, &a.UserID, &a.WordPressConfigID, &a.Title, &a.Description, &images,
			&a.SEOTitle, &a.MetaDescription, &a.SEOSlug, &publishDate, &a.Status,
			&postID, &a.WordPressCategoryID, &divipixel, &a.ErrorMessage, &updatedAt,
		)
	if err != nil {
		return domain.Announcement{}, notFound(err, "announcement", id)
	}

	if images != "" {
		if err := json.Unmarshal([]byte(images), &a.Images); err != nil {
			return domain.Announcement{}, fmt.Errorf("announcement %s images: %w", id, err)
		}
	}
	if a.PublishDate, err = parseTimePtr(publishDate); err != nil {
		return domain.Announcement{}, fmt.Errorf("announcement %s publish_date: %w", id, err)
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Announcement{}, fmt.Errorf("announcement %s updated_at: %w", id, err)
	}
	a.WordPressPostID = int64Ptr(postID)
	a.IsDivipixel = divipixel != 0
	return a, nil
}

// SaveAnnouncement inserts an announcement; an empty id gets a fresh one.
func (s *Store) SaveAnnouncement(ctx context.Context, a domain.Announcement) (domain.Announcement, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = domain.AnnouncementDraft
	}
	images, err := json.Marshal(a.Images)
	if err != nil {
		return domain.Announcement{}, fmt.Errorf("marshal images: %w", err)
	}
	var postID any
	if a.WordPressPostID != nil {
		postID = *a.WordPressPostID
	}

	_, err = s.sb.Insert("announcements").
		Columns(
			"id", "user_id", "wordpress_config_id", "title", "description", "images",
			"seo_title", "meta_description", "seo_slug", "publish_date", "status",
			"wordpress_post_id", "wordpress_category_id", "updated_at",
		).
		Values(
			a.ID, a.UserID, a.WordPressConfigID, a.Title, a.Description, string(images),
			a.SEOTitle, a.MetaDescription, a.SEOSlug, formatTimePtr(a.PublishDate), a.Status,
			postID, a.WordPressCategoryID, formatTime(s.now()),
		).
		ExecContext(ctx)
	if err != nil {
		return domain.Announcement{}, fmt.Errorf("insert announcement: %w", err)
	}
	return a, nil
}

// MarkAnnouncementPublished records the remote post after a successful write.
func (s *Store) MarkAnnouncementPublished(ctx context.Context, id string, postID int64, status, categoryID string, custom bool) error {
	update := s.sb.Update("announcements").
		Set("wordpress_post_id", postID).
		Set("status", status).
		Set("is_divipixel", boolToInt(custom)).
		Set("error_message", "").
		Set("updated_at", formatTime(s.now())).
		Where(sq.Eq{"id": id})
	if categoryID != "" {
		update = update.Set("wordpress_category_id", categoryID)
	}
	return s.execOne(ctx, update, "announcement", id)
}

// MarkAnnouncementFailed stores the failure text; the status is untouched.
func (s *Store) MarkAnnouncementFailed(ctx context.Context, id, message string) error {
	update := s.sb.Update("announcements").
		Set("error_message", domain.Truncate(message, domain.MaxErrorMessageLength)).
		Set("updated_at", formatTime(s.now())).
		Where(sq.Eq{"id": id})
	return s.execOne(ctx, update, "announcement", id)
}

func (s *Store) execOne(ctx context.Context, update sq.UpdateBuilder, what, id string) error {
	res, err := update.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", what, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, domain.ErrNotFound)
	}
	return nil
}
