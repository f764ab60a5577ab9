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

// Linguee looks text up on linguee.com and returns the featured dictionary
// translation. It works best for single words and short phrases.
type Linguee struct {
	baseURL string
	client  *http.Client
}

// NewLinguee returns a Linguee provider. An empty baseURL uses www.linguee.com.
func NewLinguee(baseURL string, client *http.Client) *Linguee {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://www.linguee.com"
	}
	return &Linguee{baseURL: baseURL, client: defaultClient(client)}
}

func (l *Linguee) Name() string { return "linguee" }

func (l *Linguee) Capability() translation.Capability {
	return translation.Capability{Sources: dictionarySources, DefaultSource: "en"}
}

func (l *Linguee) Translate(ctx context.Context, text, source, target string) (string, error) {
	from, to, err := languagePair(l.Name(), source, target)
	if err != nil {
		return "", err
	}
	query := url.Values{}
	query.Set("source", from)
	query.Set("query", strings.TrimSpace(text))
	endpoint := l.baseURL + "/" + from + "-" + to + "/search?" + query.Encode()

	body, err := get(ctx, l.client, l.Name(), endpoint)
	if err != nil {
		return "", err
	}
	doc, err := parseHTML(l.Name(), body)
	if err != nil {
		return "", err
	}
	for _, match := range []func(*html.Node) bool{element("a", "dictLink", "featured"), element("a", "dictLink")} {
		for _, node := range findAll(doc, match) {
			if word := textContent(node); word != "" {
				return word, nil
			}
		}
	}
	return "", services.Wrap(services.ErrNotFound, l.Name(), "lookup", "no dictionary entry", nil)
}
