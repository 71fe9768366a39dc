package domain

import (
	"encoding/base64"
	"strings"
)

// AuthScheme identifies how requests to a WordPress site are authenticated.
type AuthScheme string

const (
	AuthNone        AuthScheme = ""
	AuthAppPassword AuthScheme = "app_password"
	AuthAPIKey      AuthScheme = "api_key"
	AuthLegacy      AuthScheme = "legacy"
)

// Credentials are resolved per request from a WordPressConfig.
type Credentials struct {
	Scheme   AuthScheme
	Username string
	Secret   string
}

// Header renders the Authorization header value, empty for AuthNone.
func (c Credentials) Header() string {
	switch c.Scheme {
	case AuthAppPassword, AuthLegacy:
		token := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Secret))
		return "Basic " + token
	case AuthAPIKey:
		return "Bearer " + c.Secret
	default:
		return ""
	}
}

// WordPressConfig is the per-tenant site record.
type WordPressConfig struct {
	ID          string
	UserID      string
	SiteURL     string
	AppUsername string
	AppPassword string
	RestAPIKey  string
	Username    string
	Password    string
	Prompt      string
}

// Credentials picks application password, then REST key, then legacy
// username/password.
func (c WordPressConfig) Credentials() Credentials {
	switch {
	case c.AppUsername != "" && c.AppPassword != "":
		return Credentials{Scheme: AuthAppPassword, Username: c.AppUsername, Secret: c.AppPassword}
	case c.RestAPIKey != "":
		return Credentials{Scheme: AuthAPIKey, Secret: c.RestAPIKey}
	case c.Username != "" && c.Password != "":
		return Credentials{Scheme: AuthLegacy, Username: c.Username, Secret: c.Password}
	default:
		return Credentials{}
	}
}

// Site returns the normalised site root without trailing slash.
func (c WordPressConfig) Site() string {
	return NormalizeSiteURL(c.SiteURL)
}

// NormalizeSiteURL strips trailing slashes and whitespace.
func NormalizeSiteURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// ContentPath is the REST collection a post is written to.
type ContentPath string

const (
	PathPages         ContentPath = "pages"
	PathPosts         ContentPath = "posts"
	PathCustom        ContentPath = "dipi_cpt"
	PathCustomAlt     ContentPath = "dipicpt"
	CustomTaxonomy                = "dipi_cpt_category"
	StandardTaxonomy              = "categories"
	restPrefix                    = "/wp-json/wp/v2/"
)

// Target is the outcome of endpoint probing.
type Target struct {
	Path          ContentPath
	CategoryField string
	Custom        bool
}

// StandardTarget is used when the custom taxonomy is absent.
func StandardTarget(fallback ContentPath) Target {
	return Target{Path: fallback, CategoryField: StandardTaxonomy}
}

// CustomTarget is used when the site exposes the custom content type.
func CustomTarget(path ContentPath) Target {
	return Target{Path: path, CategoryField: CustomTaxonomy, Custom: true}
}

// Endpoint builds the full collection URL for a site.
func (t Target) Endpoint(site string) string {
	return RESTURL(site, string(t.Path))
}

// RESTURL joins a site root and a wp/v2 resource.
func RESTURL(site, resource string) string {
	return NormalizeSiteURL(site) + restPrefix + strings.TrimLeft(resource, "/")
}

// PostInput is the content handed to the publisher.
type PostInput struct {
	Title           string
	Content         string
	Status          string
	Date            string
	CategoryID      int64
	FeaturedMediaID int64
	Slug            string
	SEOTitle        string
	MetaDescription string
	ExistingID      int64
}

// PublishedPost is what WordPress returns after a successful write.
type PublishedPost struct {
	ID     int64
	Link   string
	Status string
}

// WordPressCategory is a term returned by the categories endpoint.
type WordPressCategory struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Parent int64  `json:"parent"`
	Count  int    `json:"count"`
}
