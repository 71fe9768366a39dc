package content

import (
	"strings"
	"testing"
)

func TestTitle(t *testing.T) {
	t.Parallel()

	html := `<h1 class="hero">Plombier <em>urgent</em>
	à Lyon</h1><h1>Second</h1><p>texte</p>`
	if got := Title(html, "fallback"); got != "Plombier urgent à Lyon" {
		t.Fatalf("Title() = %q", got)
	}
	if got := Title("<p>no heading</p>", "Nouveau contenu généré"); got != "Nouveau contenu généré" {
		t.Fatalf("Title() = %q", got)
	}
}

func TestToHTML(t *testing.T) {
	t.Parallel()

	html := "<h1>Titre</h1><p>Texte</p>"
	got, err := ToHTML(html)
	if err != nil || got != html {
		t.Fatalf("ToHTML(html) = %q, %v", got, err)
	}

	got, err = ToHTML("# Titre\n\nUn **paragraphe**.")
	if err != nil {
		t.Fatalf("ToHTML(markdown): %v", err)
	}
	if !strings.Contains(got, "<h1>Titre</h1>") || !strings.Contains(got, "<strong>paragraphe</strong>") {
		t.Fatalf("markdown not rendered: %q", got)
	}

	got, err = ToHTML("```html\n<h1>Fenced</h1>\n```")
	if err != nil || got != "<h1>Fenced</h1>" {
		t.Fatalf("fenced html = %q, %v", got, err)
	}
}
