// Package content normalises generated and user-authored bodies before they
// are sent to WordPress.
package content

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
)

var (
	htmlTagExpr = regexp.MustCompile(`(?is)<\s*(h[1-6]|p|div|ul|ol|li|strong|em|a|br|section|article|span)\b[^>]*>`)
	fenceExpr   = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n(.*?)\n?```\\s*$")
)

// IsHTML reports whether s already carries block or inline markup.
func IsHTML(s string) bool {
	return htmlTagExpr.MatchString(s)
}

// ToHTML returns s unchanged when it is HTML and renders it as Markdown
// otherwise. Code fences wrapping the whole answer are stripped first.
func ToHTML(s string) (string, error) {
	s = stripFence(strings.TrimSpace(s))
	if s == "" || IsHTML(s) {
		return s, nil
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(s), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// Title returns the text of the first <h1>, or fallback when there is none.
func Title(html, fallback string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fallback
	}
	title := strings.Join(strings.Fields(doc.Find("h1").First().Text()), " ")
	if title == "" {
		return fallback
	}
	return title
}

func stripFence(s string) string {
	if m := fenceExpr.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}
