package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/Kairiskai/MemoAI/internal/document"
	"github.com/Kairiskai/MemoAI/internal/provider"
)

// ExtractFromDOM selects message-like nodes and renders one fragment per
// node with text, in document order.
//
// When the share-view marker matches, only the stricter share container
// selectors are used; otherwise the loose generic selectors run over the
// whole document.
func ExtractFromDOM(doc *document.Document, p *provider.Profile) []string {
	containers := p.MessageContainer
	if len(p.ShareRootMarker) > 0 && doc.Exists(p.ShareRootMarker) {
		containers = p.ShareMessageContainer
	}

	var frags []string
	doc.All(containers).Each(func(_ int, node *goquery.Selection) {
		text := nodeBody(node, p.RichTextBody)
		if text == "" {
			return
		}
		frags = append(frags, fragment(nodeRole(node, p.RoleAttribute), text))
	})
	return frags
}

// nodeRole walks the lookup chain; the first non-empty value wins.
func nodeRole(node *goquery.Selection, chain []provider.RoleLookup) string {
	for _, l := range chain {
		var v string
		if l.Descendant {
			v, _ = node.Find("[" + l.Attr + "]").First().Attr(l.Attr)
		} else {
			v, _ = node.Attr(l.Attr)
		}
		if v != "" {
			return v
		}
	}
	return ""
}

func nodeBody(node *goquery.Selection, rich []string) string {
	if len(rich) > 0 {
		if r := document.FirstDescendant(node, rich); r.Length() > 0 {
			return document.Text(r)
		}
	}
	return document.Text(node)
}
