package domain

import "time"

// Keyword links a WordPress category to a target keyword for a site.
type Keyword struct {
	ID                string
	WordPressConfigID string
	CategoryID        string
	CategoryName      string
	Keyword           string
}

// Locality is a place name used to localise generated pages.
type Locality struct {
	ID                string
	WordPressConfigID string
	Name              string
	Region            string
	Active            bool
}

// Label renders "name (region)" or just the name.
func (l Locality) Label() string {
	if l.Region == "" {
		return l.Name
	}
	return l.Name + " (" + l.Region + ")"
}

// AutomationSetting drives scheduled draft generation for one site.
type AutomationSetting struct {
	ID                string `json:"id"`
	WordPressConfigID string `json:"wordpress_config_id"`
	Enabled           bool   `json:"is_enabled"`
	// Frequency is expressed in days; values below 1 are fractions of a day.
	Frequency float64   `json:"frequency"`
	APIKey    string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Announcement is a user-authored post published to WordPress.
type Announcement struct {
	ID                  string
	UserID              string
	WordPressConfigID   string
	Title               string
	Description         string
	Images              []string
	SEOTitle            string
	MetaDescription     string
	SEOSlug             string
	PublishDate         *time.Time
	Status              string
	WordPressPostID     *int64
	WordPressCategoryID string
	IsDivipixel         bool
	ErrorMessage        string
	UpdatedAt           time.Time
}

const (
	AnnouncementDraft     = "draft"
	AnnouncementPublished = "published"
	AnnouncementScheduled = "scheduled"
)

// Prompt is a system/user pair sent to a chat model.
type Prompt struct {
	System string
	User   string
}
