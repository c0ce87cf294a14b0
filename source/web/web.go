// Package web fetches HTML pages and extracts the parts agents summarize:
// title, meta description, headings, links and visible text.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/hupe1980/pathway/core"
)

const (
	maxBodyBytes = 2 << 20
	maxTextChars = 4000
	userAgent    = "Mozilla/5.0 (compatible; pathway/1.0)"
)

var multiSpacePattern = regexp.MustCompile(`\s{2,}`)

// Page is the structured record extracted from one document. Fields may be
// empty when the page is partial.
type Page struct {
	URL         string   `json:"url"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Headings    []string `json:"headings,omitempty"`
	Links       []string `json:"links,omitempty"`
	Text        string   `json:"text,omitempty"`
}

// Partial reports whether no title or description could be extracted.
func (p Page) Partial() bool { return p.Title == "" && p.Description == "" }

// Fetcher retrieves pages over HTTP.
type Fetcher struct {
	client *http.Client
}

// New returns a Fetcher. A nil client uses one with the given timeout.
func New(client *http.Client, timeout time.Duration) *Fetcher {
	if client == nil {
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Fetcher{client: client}
}

// FetchPage downloads and parses rawURL. Network and status failures are
// *core.CollaboratorError values.
func (f *Fetcher) FetchPage(ctx context.Context, rawURL string) (Page, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Page{}, &core.ValidationError{Field: "url", Constraint: "absolute http(s) url", Value: rawURL}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, core.NewCollaboratorError("web", "fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, core.NewCollaboratorError("web", "fetch", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Page{}, core.NewCollaboratorError("web", "read", err)
	}
	return Parse(u, string(body))
}

// Parse extracts a Page from an HTML document. Relative links resolve against base.
func Parse(base *url.URL, doc string) (Page, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return Page{}, err
	}
	p := Page{URL: base.String()}
	seen := map[string]bool{}
	var text strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				if p.Title == "" {
					p.Title = clean(textContent(n))
				}
			case "meta":
				name := strings.ToLower(attr(n, "name"))
				if (name == "description" || attr(n, "property") == "og:description") && p.Description == "" {
					p.Description = clean(attr(n, "content"))
				}
			case "h1", "h2", "h3":
				if h := clean(textContent(n)); h != "" {
					p.Headings = append(p.Headings, h)
				}
			case "a":
				if href := resolve(base, attr(n, "href")); href != "" && !seen[href] {
					seen[href] = true
					p.Links = append(p.Links, href)
				}
			}
		}
		if n.Type == html.TextNode && !insideHead(n) {
			text.WriteString(n.Data)
			text.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	p.Text = clean(text.String())
	if len(p.Text) > maxTextChars {
		p.Text = p.Text[:maxTextChars]
	}
	return p, nil
}

func insideHead(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && (p.Data == "head" || p.Data == "title") {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var get func(*html.Node)
	get = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			get(c)
		}
	}
	get(n)
	return sb.String()
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func clean(s string) string {
	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(s, " "))
}
