package domain

import (
	"strings"
	"time"
)

// GenerationStatus enumerates the lifecycle of a generated page.
type GenerationStatus string

const (
	StatusPending    GenerationStatus = "pending"
	StatusProcessing GenerationStatus = "processing"
	StatusDraft      GenerationStatus = "draft"
	StatusReady      GenerationStatus = "ready"
	StatusScheduled  GenerationStatus = "scheduled"
	StatusPublished  GenerationStatus = "published"
	StatusFailed     GenerationStatus = "failed"
)

// MaxErrorMessageLength bounds the failure text persisted on a record.
const MaxErrorMessageLength = 255

var transitions = map[GenerationStatus][]GenerationStatus{
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusDraft, StatusPublished, StatusFailed},
	StatusDraft:      {StatusProcessing, StatusReady, StatusScheduled, StatusFailed},
	StatusReady:      {StatusProcessing, StatusScheduled, StatusFailed},
	StatusScheduled:  {StatusProcessing, StatusFailed},
	StatusFailed:     {StatusPending},
	StatusPublished:  nil,
}

// Valid reports whether s is a known status.
func (s GenerationStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transition is allowed.
func (s GenerationStatus) Terminal() bool {
	return s == StatusPublished
}

// CanTransition reports whether from -> to is an allowed edge.
func CanTransition(from, to GenerationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Predecessors lists every status that may move to the given one.
// Storage uses it as the guard set of a compare-and-swap update.
func Predecessors(to GenerationStatus) []GenerationStatus {
	var out []GenerationStatus
	for _, from := range orderedStatuses {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

var orderedStatuses = []GenerationStatus{
	StatusPending,
	StatusProcessing,
	StatusDraft,
	StatusReady,
	StatusScheduled,
	StatusPublished,
	StatusFailed,
}

// Generation is one AI-produced page destined for a WordPress site.
type Generation struct {
	ID                string
	WordPressConfigID string
	CategoryID        string
	KeywordID         string
	LocalityID        string
	Status            GenerationStatus
	Title             string
	Content           string
	ErrorMessage      string
	WordPressPostID   *int64
	PublishedAt       *time.Time
	ScheduledAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasContent reports whether the record carries publishable text.
func (g Generation) HasContent() bool {
	return strings.TrimSpace(g.Content) != ""
}

// GenerationPatch carries the optional column updates applied alongside a
// status transition. Nil fields are left untouched.
type GenerationPatch struct {
	Title           *string
	Content         *string
	ErrorMessage    *string
	WordPressPostID *int64
	PublishedAt     *time.Time
	ScheduledAt     *time.Time
	ClearError      bool
}

// NewGeneration describes the inputs needed to create a pending record.
type NewGeneration struct {
	WordPressConfigID string
	CategoryID        string
	KeywordID         string
	LocalityID        string
}
