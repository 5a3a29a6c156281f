package extract

import (
	"github.com/Kairiskai/MemoAI/internal/document"
	"github.com/Kairiskai/MemoAI/internal/provider"
)

// MaxPlainTextRunes bounds the last-resort fallback, which may otherwise
// pick up navigation and inline script text of any size.
const MaxPlainTextRunes = 20000

var defaultPlainTextRegions = []string{"main", "body"}

// ExtractPlainText returns the text of the first region with non-blank
// text, truncated to MaxPlainTextRunes. It returns "" when every region
// is blank.
func ExtractPlainText(doc *document.Document, p *provider.Profile) string {
	regions := p.PlainTextRegions
	if len(regions) == 0 {
		regions = defaultPlainTextRegions
	}
	for _, region := range regions {
		if t := doc.Text(region); t != "" {
			return truncateRunes(t, MaxPlainTextRunes)
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
