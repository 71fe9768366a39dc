package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"DigiiBuz/internal/domain"
	"DigiiBuz/internal/ports"
)

var (
	_ ports.ConfigRepository     = (*Store)(nil)
	_ ports.CatalogRepository    = (*Store)(nil)
	_ ports.AutomationRepository = (*Store)(nil)
)

// GetWordPressConfig reads the site settings fresh on every call.
func (s *Store) GetWordPressConfig(ctx context.Context, id string) (domain.WordPressConfig, error) {
	var c domain.WordPressConfig
	err := s.sb.Select("id", "user_id", "site_url", "app_username", "app_password", "rest_api_key", "username", "password", "prompt").
		From("wordpress_configs").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&c.ID, &c.UserID, &c.SiteURL, &c.AppUsername, &c.AppPassword, &c.RestAPIKey, &c.Username, &c.Password, &c.Prompt)
	if err != nil {
		return domain.WordPressConfig{}, notFound(err, "wordpress config", id)
	}
	return c, nil
}

// SaveWordPressConfig upserts a site record; an empty id gets a fresh one.
func (s *Store) SaveWordPressConfig(ctx context.Context, c domain.WordPressConfig) (domain.WordPressConfig, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.sb.Insert("wordpress_configs").
		Columns("id", "user_id", "site_url", "app_username", "app_password", "rest_api_key", "username", "password", "prompt").
		Values(c.ID, c.UserID, c.SiteURL, c.AppUsername, c.AppPassword, c.RestAPIKey, c.Username, c.Password, c.Prompt).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
              user_id = EXCLUDED.user_id,
              site_url = EXCLUDED.site_url,
              app_username = EXCLUDED.app_username,
              app_password = EXCLUDED.app_password,
              rest_api_key = EXCLUDED.rest_api_key,
              username = EXCLUDED.username,
              password = EXCLUDED.password,
              prompt = EXCLUDED.prompt`).
		ExecContext(ctx)
	if err != nil {
		return domain.WordPressConfig{}, fmt.Errorf("upsert wordpress config: %w", err)
	}
	return c, nil
}

// ListKeywords returns every category/keyword pair of a site.
func (s *Store) ListKeywords(ctx context.Context, configID string) ([]domain.Keyword, error) {
	rows, err := s.sb.Select("id", "wordpress_config_id", "category_id", "category_name", "keyword").
		From("categories_keywords").
		Where(sq.Eq{"wordpress_config_id": configID}).
		OrderBy("category_id", "keyword").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query keywords: %w", err)
	}
	defer rows.Close()

	var result []domain.Keyword
	for rows.Next() {
		var k domain.Keyword
		if err := rows.Scan(&k.ID, &k.WordPressConfigID, &k.CategoryID, &k.CategoryName, &k.Keyword); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		result = append(result, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// GetKeyword loads a single keyword row.
func (s *Store) GetKeyword(ctx context.Context, id string) (domain.Keyword, error) {
	var k domain.Keyword
	err := s.sb.Select("id", "wordpress_config_id", "category_id", "category_name", "keyword").
		From("categories_keywords").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&k.ID, &k.WordPressConfigID, &k.CategoryID, &k.CategoryName, &k.Keyword)
	if err != nil {
		return domain.Keyword{}, notFound(err, "keyword", id)
	}
	return k, nil
}

// SaveKeyword inserts a keyword row.
func (s *Store) SaveKeyword(ctx context.Context, k domain.Keyword) (domain.Keyword, error) {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	_, err := s.sb.Insert("categories_keywords").
		Columns("id", "wordpress_config_id", "category_id", "category_name", "keyword").
		Values(k.ID, k.WordPressConfigID, k.CategoryID, k.CategoryName, k.Keyword).
		ExecContext(ctx)
	if err != nil {
		return domain.Keyword{}, fmt.Errorf("insert keyword: %w", err)
	}
	return k, nil
}

// ListActiveLocalities returns the localities enabled for generation.
func (s *Store) ListActiveLocalities(ctx context.Context, configID string) ([]domain.Locality, error) {
	rows, err := s.sb.Select("id", "wordpress_config_id", "name", "region", "is_active").
		From("localities").
		Where(sq.Eq{"wordpress_config_id": configID, "is_active": 1}).
		OrderBy("name").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query localities: %w", err)
	}
	defer rows.Close()

	var result []domain.Locality
	for rows.Next() {
		l, err := scanLocality(rows)
		if err != nil {
			return nil, fmt.Errorf("scan locality: %w", err)
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// GetLocality loads a single locality.
func (s *Store) GetLocality(ctx context.Context, id string) (domain.Locality, error) {
	row := s.sb.Select("id", "wordpress_config_id", "name", "region", "is_active").
		From("localities").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx)
	l, err := scanLocality(row)
	if err != nil {
		return domain.Locality{}, notFound(err, "locality", id)
	}
	return l, nil
}

// SaveLocality inserts a locality row.
func (s *Store) SaveLocality(ctx context.Context, l domain.Locality) (domain.Locality, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	_, err := s.sb.Insert("localities").
		Columns("id", "wordpress_config_id", "name", "region", "is_active").
		Values(l.ID, l.WordPressConfigID, l.Name, l.Region, boolToInt(l.Active)).
		ExecContext(ctx)
	if err != nil {
		return domain.Locality{}, fmt.Errorf("insert locality: %w", err)
	}
	return l, nil
}

func scanLocality(row rowScanner) (domain.Locality, error) {
	var (
		l      domain.Locality
		active int
	)
	if err := row.Scan(&l.ID, &l.WordPressConfigID, &l.Name, &l.Region, &active); err != nil {
		return domain.Locality{}, err
	}
	l.Active = active != 0
	return l, nil
}

// ListAutomationSettings returns automation rows, optionally enabled only.
func (s *Store) ListAutomationSettings(ctx context.Context, enabledOnly bool) ([]domain.AutomationSetting, error) {
	query := s.sb.Select("id", "wordpress_config_id", "is_enabled", "frequency", "api_key", "created_at").
		From("tome_automation").
		OrderBy("created_at")
	if enabledOnly {
		query = query.Where(sq.Eq{"is_enabled": 1})
	}

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query automation: %w", err)
	}
	defer rows.Close()

	var result []domain.AutomationSetting
	for rows.Next() {
		var (
			a         domain.AutomationSetting
			enabled   int
			createdAt string
		)
		if err := rows.Scan(&a.ID, &a.WordPressConfigID, &enabled, &a.Frequency, &a.APIKey, &createdAt); err != nil {
			return nil, fmt.Errorf("scan automation: %w", err)
		}
		a.Enabled = enabled != 0
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("automation created_at: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// SaveAutomationSetting upserts an automation row.
func (s *Store) SaveAutomationSetting(ctx context.Context, a domain.AutomationSetting) (domain.AutomationSetting, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	_, err := s.sb.Insert("tome_automation").
		Columns("id", "wordpress_config_id", "is_enabled", "frequency", "api_key", "created_at").
		Values(a.ID, a.WordPressConfigID, boolToInt(a.Enabled), a.Frequency, a.APIKey, formatTime(a.CreatedAt)).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
              is_enabled = EXCLUDED.is_enabled,
              frequency = EXCLUDED.frequency,
              api_key = EXCLUDED.api_key`).
		ExecContext(ctx)
	if err != nil {
		return domain.AutomationSetting{}, fmt.Errorf("upsert automation: %w", err)
	}
	return a, nil
}
