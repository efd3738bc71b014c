package html

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
	"github.com/aloha-corp/aloha-rag/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts an HTML document to readable text.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	page, err := Parse(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrInvalidInput, raw.URI, err)
	}

	doc := normalisers.NewDocument(raw, normalisers.TitleFor(raw, page.Title), page.Text, domain.SourceTypeWeb, "html")
	doc.Summary = page.Description
	doc.Language = page.Lang
	if doc.URL == "" && normalisers.IsWebURL(page.Canonical) {
		doc.URL = page.Canonical
	}

	return &driven.NormaliseResult{Document: doc}, nil
}

// Page is the readable content of an HTML document.
type Page struct {
	Title       string
	Description string
	Canonical   string
	Lang        string
	Text        string
}

// skipped elements contribute no text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Template: true,
	atom.Iframe:   true,
	atom.Nav:      true,
}

// block elements start a new line.
var block = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Tr: true, atom.Blockquote: true, atom.Pre: true, atom.Table: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Ul: true, atom.Ol: true, atom.Dt: true, atom.Dd: true, atom.Figcaption: true,
}

var spaces = regexp.MustCompile(`[ \t\r\f\v\x{00a0}]+`)

// Parse extracts the readable text and head metadata from an HTML stream.
func Parse(r io.Reader) (Page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return Page{}, err
	}

	var page Page
	var text strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Html:
				page.Lang = attr(n, "lang")
			case atom.Title:
				if page.Title == "" {
					page.Title = strings.TrimSpace(textOf(n))
				}
			case atom.Meta:
				if strings.EqualFold(attr(n, "name"), "description") {
					page.Description = strings.TrimSpace(attr(n, "content"))
				}
				if attr(n, "property") == "og:title" && page.Title == "" {
					page.Title = strings.TrimSpace(attr(n, "content"))
				}
			case atom.Link:
				if strings.EqualFold(attr(n, "rel"), "canonical") {
					page.Canonical = attr(n, "href")
				}
			}
			// Head children only feed page metadata.
			if n.DataAtom == atom.Head {
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c)
				}
				return
			}
			if skipped[n.DataAtom] {
				return
			}
			if block[n.DataAtom] {
				text.WriteByte('\n')
			}
		}

		if n.Type == html.TextNode && !inHead(n) {
			text.WriteString(n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && block[n.DataAtom] {
			text.WriteByte('\n')
		}
	}
	walk(root)

	page.Text = tidy(text.String())
	return page, nil
}

// ExtractText returns only the readable text of an HTML fragment.
func ExtractText(s string) string {
	page, err := Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}
	return page.Text
}

func inHead(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.DataAtom == atom.Head {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// tidy collapses runs of whitespace and drops blank lines.
func tidy(s string) string {
	lines := strings.Split(spaces.ReplaceAllString(s, " "), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
