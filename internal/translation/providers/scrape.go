package providers

import (
	"bytes"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"golang.org/x/net/html"

	"vidsub/internal/language"
)

// dictionarySources are the source languages the dictionary sites translate from.
var dictionarySources = []string{"en", "de", "fr", "es"}

func defaultClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// languagePair returns the "english-chinese" style path segment dictionary
// sites use.
func languagePair(provider, source, target string) (string, string, error) {
	from := language.Name(source)
	if from == "" {
		return "", "", fmt.Errorf("%s: unsupported source language %q", provider, source)
	}
	to := language.Name(target)
	if to == "" {
		return "", "", fmt.Errorf("%s: unsupported target language %q", provider, target)
	}
	return from, to, nil
}

func parseHTML(provider string, body []byte) (*html.Node, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: parse html: %w", provider, err)
	}
	return doc, nil
}

// findAll walks the tree depth-first and returns nodes accepted by match.
func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			found = append(found, n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return found
}

// element matches element nodes with the given tag carrying every class.
func element(tag string, classes ...string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != tag {
			return false
		}
		have := strings.Fields(attr(n, "class"))
		for _, class := range classes {
			if !slices.Contains(have, class) {
				return false
			}
		}
		return true
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textContent returns the node's text with whitespace collapsed.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteByte(' ')
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
