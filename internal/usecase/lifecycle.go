package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"DigiiBuz/internal/domain"
	"DigiiBuz/internal/ports"
)

const (
	failureWriteTimeout = 5 * time.Second
	interruptedMessage  = "Processing was interrupted. Please try again."
)

// Lifecycle owns every status change of a generation record. Each method is
// a guarded compare-and-swap, so a caller holding a stale view loses with
// domain.ErrConflict instead of overwriting a newer state.
type Lifecycle struct {
	repo   ports.GenerationRepository
	logger *slog.Logger
}

// NewLifecycle wires the repository.
func NewLifecycle(repo ports.GenerationRepository, logger *slog.Logger) *Lifecycle {
	return &Lifecycle{
		repo:   repo,
		logger: logger,
	}
}

// Create inserts a pending record.
func (l *Lifecycle) Create(ctx context.Context, in domain.NewGeneration) (domain.Generation, error) {
	g, err := l.repo.CreateGeneration(ctx, in)
	if err != nil {
		return domain.Generation{}, fmt.Errorf("create generation: %w", err)
	}
	return g, nil
}

// Get loads a record.
func (l *Lifecycle) Get(ctx context.Context, id string) (domain.Generation, error) {
	return l.repo.GetGeneration(ctx, id)
}

// MarkProcessing claims the record for generation or publication.
func (l *Lifecycle) MarkProcessing(ctx context.Context, id string) (domain.Generation, error) {
	return l.move(ctx, id, domain.StatusProcessing, domain.GenerationPatch{ClearError: true})
}

// MarkDraft stores generated content. The write survives cancellation of ctx.
func (l *Lifecycle) MarkDraft(ctx context.Context, id, content, title string) (domain.Generation, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Generation{}, fmt.Errorf("draft %s: %w", id, domain.ErrNoContent)
	}
	ctx, cancel := detached(ctx)
	defer cancel()
	return l.move(ctx, id, domain.StatusDraft, domain.GenerationPatch{Title: &title, Content: &content})
}

// MarkPublished records the remote post id and publication time. The write
// survives cancellation of ctx.
func (l *Lifecycle) MarkPublished(ctx context.Context, id string, remotePostID int64, at time.Time) (domain.Generation, error) {
	if remotePostID <= 0 {
		return domain.Generation{}, fmt.Errorf("remote post id %d: %w", remotePostID, domain.ErrInvalidInput)
	}
	at = at.UTC()
	ctx, cancel := detached(ctx)
	defer cancel()
	return l.move(ctx, id, domain.StatusPublished, domain.GenerationPatch{
		WordPressPostID: &remotePostID,
		PublishedAt:     &at,
		ClearError:      true,
	})
}

// MarkFailed stores a bounded, non-empty message. The write survives
// cancellation of ctx so a timed-out request still leaves a failed record.
func (l *Lifecycle) MarkFailed(ctx context.Context, id, message string) (domain.Generation, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		message = "An error occurred"
	}
	message = domain.Truncate(message, domain.MaxErrorMessageLength)

	ctx, cancel := detached(ctx)
	defer cancel()

	g, err := l.move(ctx, id, domain.StatusFailed, domain.GenerationPatch{ErrorMessage: &message})
	if err != nil {
		l.warn("cannot mark generation failed", "generation_id", id, "error", err)
	}
	return g, err
}

// Retry sends a failed record back to pending.
func (l *Lifecycle) Retry(ctx context.Context, id string) (domain.Generation, error) {
	return l.move(ctx, id, domain.StatusPending, domain.GenerationPatch{ClearError: true})
}

// Approve marks a reviewed draft as ready for publication.
func (l *Lifecycle) Approve(ctx context.Context, id string) (domain.Generation, error) {
	return l.move(ctx, id, domain.StatusReady, domain.GenerationPatch{})
}

// Schedule queues a draft or ready record for publication at a later time.
func (l *Lifecycle) Schedule(ctx context.Context, id string, at time.Time) (domain.Generation, error) {
	if at.IsZero() {
		return domain.Generation{}, fmt.Errorf("schedule time is required: %w", domain.ErrInvalidInput)
	}
	g, err := l.repo.GetGeneration(ctx, id)
	if err != nil {
		return domain.Generation{}, err
	}
	if !g.HasContent() {
		return g, fmt.Errorf("schedule %s: %w", id, domain.ErrNoContent)
	}
	at = at.UTC()
	return l.move(ctx, id, domain.StatusScheduled, domain.GenerationPatch{ScheduledAt: &at})
}

// RecoverStale fails every record left in processing since before cutoff,
// typically by a worker that died mid-flight, so it can be retried.
func (l *Lifecycle) RecoverStale(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := l.repo.ListStaleProcessing(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stale generations: %w", err)
	}
	msg := interruptedMessage
	recovered := 0
	for _, g := range stale {
		// Only processing is guarded: a record that finished meanwhile is left alone.
		_, err := l.repo.TransitionGeneration(ctx, g.ID, []domain.GenerationStatus{domain.StatusProcessing}, domain.StatusFailed, domain.GenerationPatch{ErrorMessage: &msg})
		if err != nil {
			continue
		}
		l.warn("stale generation marked failed", "generation_id", g.ID, "since", g.UpdatedAt)
		recovered++
	}
	return recovered, nil
}

func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), failureWriteTimeout)
}

func (l *Lifecycle) move(ctx context.Context, id string, to domain.GenerationStatus, patch domain.GenerationPatch) (domain.Generation, error) {
	g, err := l.repo.TransitionGeneration(ctx, id, domain.Predecessors(to), to, patch)
	if err != nil {
		return g, fmt.Errorf("mark %s: %w", to, err)
	}
	l.debug("generation status changed", "generation_id", id, "status", to)
	return g, nil
}

func (l *Lifecycle) debug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}

func (l *Lifecycle) warn(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}
