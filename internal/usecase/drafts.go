package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"DigiiBuz/internal/content"
	"DigiiBuz/internal/domain"
	"DigiiBuz/internal/ports"
)

// DraftDeps wires the draft generator.
type DraftDeps struct {
	Lifecycle     *Lifecycle
	Configs       ports.ConfigRepository
	Catalog       ports.CatalogRepository
	Chat          ports.ChatClient
	DefaultPrompt string
	DefaultTitle  string
	Logger        *slog.Logger
}

// DraftGenerator fills a pending record with LLM-written HTML.
type DraftGenerator struct {
	lifecycle     *Lifecycle
	configs       ports.ConfigRepository
	catalog       ports.CatalogRepository
	chat          ports.ChatClient
	defaultPrompt string
	defaultTitle  string
	logger        *slog.Logger
}

// NewDraftGenerator constructs the generator.
func NewDraftGenerator(deps DraftDeps) *DraftGenerator {
	return &DraftGenerator{
		lifecycle:     deps.Lifecycle,
		configs:       deps.Configs,
		catalog:       deps.Catalog,
		chat:          deps.Chat,
		defaultPrompt: defaultString(deps.DefaultPrompt, "Vous êtes un expert en rédaction de contenu SEO."),
		defaultTitle:  defaultString(deps.DefaultTitle, "Nouveau contenu généré"),
		logger:        deps.Logger,
	}
}

const unknownCategory = "Non spécifiée"

// Subject is what a page is written about.
type Subject struct {
	Category string
	Keyword  string
	Locality string
}

// GenerateDraft moves the record through processing to draft. On any error
// the record is left failed with the message.
func (d *DraftGenerator) GenerateDraft(ctx context.Context, id string) (domain.Generation, error) {
	g, err := d.lifecycle.MarkProcessing(ctx, id)
	if err != nil {
		return domain.Generation{}, err
	}

	html, title, err := d.write(ctx, g)
	if err != nil {
		d.warn("draft generation failed", "generation_id", id, "error", err)
		_, _ = d.lifecycle.MarkFailed(ctx, id, domain.FriendlyMessage(err))
		return domain.Generation{}, err
	}

	draft, err := d.lifecycle.MarkDraft(ctx, id, html, title)
	if err != nil {
		d.warn("cannot store draft", "generation_id", id, "error", err)
		_, _ = d.lifecycle.MarkFailed(ctx, id, domain.FriendlyMessage(err))
		return domain.Generation{}, err
	}
	d.info("draft generated", "generation_id", id, "title", title, "bytes", len(html))
	return draft, nil
}

func (d *DraftGenerator) write(ctx context.Context, g domain.Generation) (string, string, error) {
	if d.chat == nil {
		return "", "", errors.New("llm client is not configured")
	}

	cfg, err := d.configs.GetWordPressConfig(ctx, g.WordPressConfigID)
	if err != nil {
		return "", "", fmt.Errorf("load wordpress config: %w", err)
	}

	subject, err := d.resolveSubject(ctx, g)
	if err != nil {
		return "", "", err
	}

	raw, err := d.chat.Complete(ctx, domain.Prompt{User: BuildPrompt(defaultString(cfg.Prompt, d.defaultPrompt), subject)})
	if err != nil {
		return "", "", fmt.Errorf("generate content: %w", err)
	}

	html, err := content.ToHTML(raw)
	if err != nil {
		return "", "", fmt.Errorf("render content: %w", err)
	}
	if strings.TrimSpace(html) == "" {
		return "", "", fmt.Errorf("generate content: %w", domain.ErrNoContent)
	}

	return html, content.Title(html, d.defaultTitle), nil
}

func (d *DraftGenerator) resolveSubject(ctx context.Context, g domain.Generation) (Subject, error) {
	subject := Subject{Category: unknownCategory}

	if g.KeywordID != "" {
		kw, err := d.catalog.GetKeyword(ctx, g.KeywordID)
		if err != nil {
			return Subject{}, fmt.Errorf("load keyword: %w", err)
		}
		subject.Keyword = kw.Keyword
		if kw.CategoryName != "" {
			subject.Category = kw.CategoryName
		}
	} else if g.CategoryID != "" {
		keywords, err := d.catalog.ListKeywords(ctx, g.WordPressConfigID)
		if err != nil {
			return Subject{}, fmt.Errorf("load keywords: %w", err)
		}
		for _, kw := range keywords {
			if kw.CategoryID == g.CategoryID && kw.CategoryName != "" {
				subject.Category = kw.CategoryName
				break
			}
		}
	}

	if g.LocalityID != "" {
		loc, err := d.catalog.GetLocality(ctx, g.LocalityID)
		if err != nil {
			return Subject{}, fmt.Errorf("load locality: %w", err)
		}
		subject.Locality = loc.Label()
	}

	return subject, nil
}

// BuildPrompt renders the user message sent to the model.
func BuildPrompt(base string, s Subject) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(base))
	b.WriteString("\n\nVeuillez créer un contenu optimisé pour une page web sur le sujet suivant:")
	fmt.Fprintf(&b, "\n- Catégorie: %s", s.Category)
	if s.Keyword != "" {
		fmt.Fprintf(&b, "\n- Mot-clé principal: %s", s.Keyword)
	}
	if s.Locality != "" {
		fmt.Fprintf(&b, "\n- Localité: %s", s.Locality)
	}
	b.WriteString("\n\nLe contenu doit:")
	b.WriteString("\n- Être optimisé pour le SEO")
	b.WriteString("\n- Contenir entre 500 et 800 mots")
	b.WriteString("\n- Inclure un titre H1 accrocheur")
	b.WriteString("\n- Avoir une structure avec des sous-titres H2 et H3")
	b.WriteString("\n- Être écrit en français courant")
	if s.Locality != "" {
		fmt.Fprintf(&b, "\n- Être localisé pour %s", s.Locality)
	}
	b.WriteString("\n\nFormat souhaité: HTML avec balises pour les titres (h1, h2, h3), paragraphes (p) et listes (ul, li).")
	return b.String()
}

func (d *DraftGenerator) info(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Info(msg, args...)
	}
}

func (d *DraftGenerator) warn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}

// GenerateAndPublish drafts the record and publishes it straight away.
func GenerateAndPublish(ctx context.Context, drafts *DraftGenerator, publisher *Publisher, id string) (PublishResult, error) {
	if _, err := drafts.GenerateDraft(ctx, id); err != nil {
		return PublishResult{}, err
	}
	return publisher.PublishGeneration(ctx, id)
}
