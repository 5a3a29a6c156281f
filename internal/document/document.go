// Package document wraps a parsed HTML snapshot with the handful of queries
// the extractors need. Missing elements always produce empty results, never
// errors.
package document

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML snapshot. It is read-only once built.
type Document struct {
	doc *goquery.Document
	// Degraded is set when the tree builder gave up and the document was
	// rebuilt from the raw token stream.
	Degraded bool
}

// Parse builds a document from raw HTML. Invalid UTF-8 sequences are
// replaced with U+FFFD. Structure the tree builder refuses (such as nesting
// past its depth limit) yields a degraded document instead of an error.
func Parse(raw string) (*Document, error) {
	return parseReader(strings.NewReader(strings.ToValidUTF8(raw, "\uFFFD")))
}

func parseReader(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	root, err := html.Parse(bytes.NewReader(data))
	if err == nil {
		return &Document{doc: goquery.NewDocumentFromNode(root)}, nil
	}
	root, terr := flatten(bytes.NewReader(data))
	if terr != nil {
		return nil, fmt.Errorf("tokenize html: %w", terr)
	}
	return &Document{doc: goquery.NewDocumentFromNode(root), Degraded: true}, nil
}

// flatten rebuilds a minimal tree from the token stream: every text token
// goes under <body>, and <script> elements keep their attributes and body
// so embedded state can still be read.
func flatten(r io.Reader) (*html.Node, error) {
	root := &html.Node{Type: html.DocumentNode}
	htmlEl := &html.Node{Type: html.ElementNode, Data: "html", DataAtom: atom.Html}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	root.AppendChild(htmlEl)
	htmlEl.AppendChild(body)

	cur := body
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, err
			}
			return root, nil
		case html.TextToken:
			cur.AppendChild(&html.Node{Type: html.TextNode, Data: string(z.Text())})
		case html.StartTagToken:
			tok := z.Token()
			if tok.DataAtom == atom.Script {
				script := &html.Node{Type: html.ElementNode, Data: tok.Data, DataAtom: tok.DataAtom, Attr: tok.Attr}
				body.AppendChild(script)
				cur = script
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "script" {
				cur = body
			}
		}
	}
}

// ScriptByID returns the raw text of the <script> element with the given id.
func (d *Document) ScriptByID(id string) (string, bool) {
	var body string
	found := false
	d.doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr("id"); ok && v == id {
			body = s.Text()
			found = true
			return false
		}
		return true
	})
	return body, found
}

// Exists reports whether any node matches any of the selectors.
func (d *Document) Exists(selectors []string) bool {
	return d.All(selectors).Length() > 0
}

// All returns every node matching any of the selectors, in document order.
// Selectors that fail to compile are ignored.
func (d *Document) All(selectors []string) *goquery.Selection {
	return findAny(d.doc.Selection, selectors)
}

// First returns the first node in document order matching any selector.
func (d *Document) First(selectors []string) *goquery.Selection {
	return d.All(selectors).First()
}

// Text returns the normalized text of every node matching selector,
// concatenated in document order, or "" when nothing matches.
func (d *Document) Text(selector string) string {
	return Text(d.All([]string{selector}))
}

// FirstDescendant returns the first descendant of s matching any selector.
func FirstDescendant(s *goquery.Selection, selectors []string) *goquery.Selection {
	return findAny(s, selectors).First()
}

// Text returns the text content of s, trimmed, with CRLF folded to LF and
// non-breaking spaces replaced by plain spaces. Line structure is kept so
// code blocks survive.
func Text(s *goquery.Selection) string {
	if s == nil || s.Length() == 0 {
		return ""
	}
	return normalize(s.Text())
}

var textReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\u00a0", " ")

func normalize(s string) string {
	return strings.TrimSpace(textReplacer.Replace(s))
}

// findAny matches the valid selectors as one group, so results stay in
// document order regardless of which selector matched.
func findAny(s *goquery.Selection, selectors []string) *goquery.Selection {
	var valid []string
	for _, sel := range selectors {
		if _, err := compile(sel); err == nil {
			valid = append(valid, sel)
		}
	}
	if len(valid) == 0 {
		return s.Slice(0, 0)
	}
	return s.Find(strings.Join(valid, ", "))
}
