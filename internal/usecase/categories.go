package usecase

import (
	"context"
	"fmt"

	"DigiiBuz/internal/domain"
	"DigiiBuz/internal/ports"
)

// Categories lists WordPress categories of a configured site.
type Categories struct {
	configs ports.ConfigRepository
	source  ports.CategorySource
}

// NewCategories wires the config repository and the (cached) category source.
func NewCategories(configs ports.ConfigRepository, source ports.CategorySource) *Categories {
	return &Categories{configs: configs, source: source}
}

func (c *Categories) List(ctx context.Context, configID string) ([]domain.WordPressCategory, error) {
	cfg, err := c.configs.GetWordPressConfig(ctx, configID)
	if err != nil {
		return nil, fmt.Errorf("load wordpress config: %w", err)
	}
	site := cfg.Site()
	if site == "" {
		return nil, fmt.Errorf("wordpress config %s has no site url: %w", cfg.ID, domain.ErrInvalidInput)
	}
	categories, err := c.source.Get(ctx, cfg.ID, site, cfg.Credentials())
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}
