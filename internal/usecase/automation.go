package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"DigiiBuz/internal/domain"
	"DigiiBuz/internal/ports"
)

const defaultStaleAfter = 15 * time.Minute

// Per-config outcomes of an automation run.
const (
	ResultSkipped    = "skipped"
	ResultProcessing = "processing"
	ResultSuccess    = "success"
	ResultFailed     = "failed"
	ResultError      = "error"
)

// AutomationDeps wires the automation run.
type AutomationDeps struct {
	Settings    ports.AutomationRepository
	Generations ports.GenerationRepository
	Catalog     ports.CatalogRepository
	Lifecycle   *Lifecycle
	Drafts      *DraftGenerator
	Publisher   *Publisher
	// StaleAfter is how long a record may sit in processing before a tick
	// fails it. Defaults to 15 minutes.
	StaleAfter time.Duration
	// Intn returns a value in [0, n). Defaults to math/rand/v2.
	Intn   func(n int) int
	Logger *slog.Logger
}

// Automation creates drafts for sites whose frequency has elapsed and
// publishes scheduled records that are due.
type Automation struct {
	settings    ports.AutomationRepository
	generations ports.GenerationRepository
	catalog     ports.CatalogRepository
	lifecycle   *Lifecycle
	drafts      *DraftGenerator
	publisher   *Publisher
	staleAfter  time.Duration
	intn        func(n int) int
	now         func() time.Time
	logger      *slog.Logger
}

// RunOptions tune a single run.
type RunOptions struct {
	ConfigCheck bool
	Force       bool
	// APIKey restricts the run to the matching setting and forces it.
	APIKey string
}

// RunDetail reports what happened for one site.
type RunDetail struct {
	ConfigID     string `json:"configId"`
	Result       string `json:"result"`
	Reason       string `json:"reason,omitempty"`
	Success      bool   `json:"success"`
	GenerationID string `json:"generationId,omitempty"`
}

// RunReport summarises a run.
type RunReport struct {
	GenerationsCreated int                        `json:"generationsCreated"`
	Published          int                        `json:"published"`
	Recovered          int                        `json:"recovered,omitempty"`
	Settings           []domain.AutomationSetting `json:"automationSettings,omitempty"`
	Details            []RunDetail                `json:"processingDetails,omitempty"`
}

// NewAutomation constructs the automation use case.
func NewAutomation(deps AutomationDeps) *Automation {
	intn := deps.Intn
	if intn == nil {
		intn = rand.IntN
	}
	staleAfter := deps.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	return &Automation{
		settings:    deps.Settings,
		generations: deps.Generations,
		catalog:     deps.Catalog,
		lifecycle:   deps.Lifecycle,
		drafts:      deps.Drafts,
		publisher:   deps.Publisher,
		staleAfter:  staleAfter,
		intn:        intn,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      deps.Logger,
	}
}

// Run evaluates every enabled setting, or only the one owning opts.APIKey.
func (a *Automation) Run(ctx context.Context, opts RunOptions) (RunReport, error) {
	settings, force, err := a.selectSettings(ctx, opts)
	if err != nil {
		return RunReport{}, err
	}

	if opts.ConfigCheck {
		return RunReport{Settings: settings}, nil
	}

	report := RunReport{Details: make([]RunDetail, 0, len(settings))}
	for _, setting := range settings {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		detail := a.process(ctx, setting, force)
		if detail.Success {
			report.GenerationsCreated++
		}
		report.Details = append(report.Details, detail)
	}

	a.info("automation run finished", "settings", len(settings), "created", report.GenerationsCreated)
	return report, nil
}

// Tick is the cron entry point. It fails records stuck in processing, runs
// the automation, then publishes every scheduled record that is due.
func (a *Automation) Tick(ctx context.Context, at time.Time) RunReport {
	recovered := 0
	if a.lifecycle != nil {
		n, err := a.lifecycle.RecoverStale(ctx, at.UTC().Add(-a.staleAfter))
		if err != nil {
			a.warn("recover stale generations", "error", err)
		}
		recovered = n
	}

	report, err := a.Run(ctx, RunOptions{})
	if err != nil {
		a.warn("automation run failed", "error", err)
	}
	report.Recovered = recovered
	if a.publisher != nil {
		due, err := a.generations.ListDueScheduled(ctx, at.UTC())
		if err != nil {
			a.warn("list due scheduled generations", "error", err)
			return report
		}
		report.Published = a.publisher.PublishDue(ctx, due)
	}
	return report
}

func (a *Automation) selectSettings(ctx context.Context, opts RunOptions) ([]domain.AutomationSetting, bool, error) {
	if opts.APIKey == "" {
		settings, err := a.settings.ListAutomationSettings(ctx, true)
		if err != nil {
			return nil, false, fmt.Errorf("list automation settings: %w", err)
		}
		return settings, opts.Force, nil
	}

	all, err := a.settings.ListAutomationSettings(ctx, false)
	if err != nil {
		return nil, false, fmt.Errorf("list automation settings: %w", err)
	}
	for _, s := range all {
		if s.APIKey != opts.APIKey {
			continue
		}
		if !s.Enabled {
			return nil, false, domain.ErrAutomationOff
		}
		return []domain.AutomationSetting{s}, true, nil
	}
	return nil, false, domain.ErrInvalidAPIKey
}

func (a *Automation) process(ctx context.Context, setting domain.AutomationSetting, force bool) RunDetail {
	detail := RunDetail{ConfigID: setting.WordPressConfigID, Result: ResultSkipped}

	if !force {
		last, err := a.generations.LastGenerationAt(ctx, setting.WordPressConfigID)
		if err != nil {
			detail.Result, detail.Reason = ResultError, err.Error()
			return detail
		}
		if !ShouldGenerate(last, setting.Frequency, a.now()) {
			detail.Reason = "frequency_not_reached"
			return detail
		}
	}
	detail.Result = ResultProcessing

	in, reason, err := a.pick(ctx, setting.WordPressConfigID)
	if err != nil {
		detail.Result, detail.Reason = ResultError, err.Error()
		return detail
	}
	if reason != "" {
		detail.Result, detail.Reason = ResultFailed, reason
		return detail
	}

	g, err := a.lifecycle.Create(ctx, in)
	if err != nil {
		detail.Result, detail.Reason = ResultFailed, "generation_creation_failed"
		a.warn("create automated generation", "config_id", setting.WordPressConfigID, "error", err)
		return detail
	}
	detail.GenerationID = g.ID

	if _, err := a.drafts.GenerateDraft(ctx, g.ID); err != nil {
		detail.Result, detail.Reason = ResultFailed, "content_generation_failed"
		return detail
	}

	detail.Result, detail.Success = ResultSuccess, true
	a.debug("automated draft created", "config_id", setting.WordPressConfigID, "generation_id", g.ID)
	return detail
}

// pick chooses a random category, one of its keywords and an active locality.
// A non-empty reason means there is nothing to generate from.
func (a *Automation) pick(ctx context.Context, configID string) (domain.NewGeneration, string, error) {
	keywords, err := a.catalog.ListKeywords(ctx, configID)
	if err != nil {
		return domain.NewGeneration{}, "", fmt.Errorf("list keywords: %w", err)
	}

	var categories []string
	byCategory := map[string][]domain.Keyword{}
	for _, kw := range keywords {
		if kw.CategoryID == "" {
			continue
		}
		if _, seen := byCategory[kw.CategoryID]; !seen {
			categories = append(categories, kw.CategoryID)
		}
		byCategory[kw.CategoryID] = append(byCategory[kw.CategoryID], kw)
	}
	if len(categories) == 0 {
		return domain.NewGeneration{}, "no_categories", nil
	}

	in := domain.NewGeneration{WordPressConfigID: configID}
	in.CategoryID = categories[a.intn(len(categories))]

	var candidates []domain.Keyword
	for _, kw := range byCategory[in.CategoryID] {
		if kw.Keyword != "" {
			candidates = append(candidates, kw)
		}
	}
	if len(candidates) > 0 {
		in.KeywordID = candidates[a.intn(len(candidates))].ID
	}

	localities, err := a.catalog.ListActiveLocalities(ctx, configID)
	if err != nil {
		return domain.NewGeneration{}, "", fmt.Errorf("list localities: %w", err)
	}
	if len(localities) > 0 {
		in.LocalityID = localities[a.intn(len(localities))].ID
	}

	return in, "", nil
}

// ShouldGenerate reports whether frequency days have elapsed since last.
// Frequencies below one day are compared in whole minutes, others in whole days.
func ShouldGenerate(last *time.Time, frequency float64, now time.Time) bool {
	if last == nil {
		return true
	}
	diff := now.Sub(*last)
	if diff < 0 {
		diff = -diff
	}
	if frequency < 1 {
		minutes := math.Floor(diff.Minutes())
		return minutes >= math.Floor(frequency*24*60)
	}
	days := math.Floor(diff.Hours() / 24)
	return days >= frequency
}

func (a *Automation) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

func (a *Automation) info(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Info(msg, args...)
	}
}

func (a *Automation) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}
