package providers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"vidsub/internal/services"
	"vidsub/internal/translation"
)

// Pons looks text up on pons.com and returns the first target-side entry.
type Pons struct {
	baseURL string
	client  *http.Client
}

// NewPons returns a PONS provider. An empty baseURL uses en.pons.com/translate.
func NewPons(baseURL string, client *http.Client) *Pons {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://en.pons.com/translate"
	}
	return &Pons{baseURL: baseURL, client: defaultClient(client)}
}

func (p *Pons) Name() string { return "pons" }

func (p *Pons) Capability() translation.Capability {
	return translation.Capability{Sources: dictionarySources, DefaultSource: "en"}
}

func (p *Pons) Translate(ctx context.Context, text, source, target string) (string, error) {
	from, to, err := languagePair(p.Name(), source, target)
	if err != nil {
		return "", err
	}
	endpoint := p.baseURL + "/" + from + "-" + to + "/" + url.PathEscape(strings.TrimSpace(text))

	body, err := get(ctx, p.client, p.Name(), endpoint)
	if err != nil {
		return "", err
	}
	doc, err := parseHTML(p.Name(), body)
	if err != nil {
		return "", err
	}
	for _, node := range findAll(doc, element("div", "target")) {
		if word := ponsEntry(node); word != "" {
			return word, nil
		}
	}
	return "", services.Wrap(services.ErrNotFound, p.Name(), "lookup", "no dictionary entry", nil)
}

// ponsEntry prefers the linked words inside a target cell and falls back to
// the whole cell text.
func ponsEntry(node *html.Node) string {
	links := findAll(node, element("a"))
	if len(links) == 0 {
		return textContent(node)
	}
	words := make([]string, 0, len(links))
	for _, link := range links {
		if word := textContent(link); word != "" {
			words = append(words, word)
		}
	}
	return strings.Join(words, " ")
}
