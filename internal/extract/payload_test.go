package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kairiskai/MemoAI/internal/document"
	"github.com/Kairiskai/MemoAI/internal/provider"
)

func claude(t *testing.T) *provider.Profile {
	t.Helper()
	p, err := provider.Default().Resolve("Claude")
	require.NoError(t, err)
	return p
}

func parse(t *testing.T, html string) *document.Document {
	t.Helper()
	d, err := document.Parse(html)
	require.NoError(t, err)
	return d
}

func TestExtractStructuredMessages_PathPrecedence(t *testing.T) {
	doc := parse(t, page(`{
		"messages":[{"text":"top"}],
		"props":{
			"messages":[{"text":"props"}],
			"pageProps":{
				"messages":[{"text":"pageProps"}],
				"conversation":{"messages":[{"text":"conversation"},{"text":"second"}]}
			}
		}
	}`, ""))

	msgs, ok := ExtractStructuredMessages(doc, claude(t))
	require.True(t, ok)
	require.Len(t, msgs, 2)
	first, _ := ToMarkdown(msgs[0])
	assert.Equal(t, "conversation", first)
}

func TestExtractStructuredMessages_SkipsNonArrayPaths(t *testing.T) {
	doc := parse(t, page(`{"props":{"pageProps":{"conversation":{"messages":"nope"},"messages":null},"messages":[{"text":"props"}]}}`, ""))

	msgs, ok := ExtractStructuredMessages(doc, claude(t))
	require.True(t, ok)
	require.Len(t, msgs, 1)
	got, _ := ToMarkdown(msgs[0])
	assert.Equal(t, "props", got)
}

func TestExtractStructuredMessages_EmptyArrayIsStillAMatch(t *testing.T) {
	doc := parse(t, page(`{"props":{"pageProps":{"messages":[]}},"messages":[{"text":"later"}]}`, ""))

	msgs, ok := ExtractStructuredMessages(doc, claude(t))
	assert.True(t, ok)
	assert.Empty(t, msgs)
}

func TestExtractStructuredMessages_NoPayload(t *testing.T) {
	cases := map[string]string{
		"no script":      page("", "<main>x</main>"),
		"blank script":   page("   ", ""),
		"invalid json":   page(`{"messages":[`, ""),
		"no known path":  page(`{"data":{"messages":[]}}`, ""),
		"array root":     page(`[{"text":"x"}]`, ""),
		"trailing bytes": page(`{"messages":[]} junk`, ""),
	}
	for name, html := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := ExtractStructuredMessages(parse(t, html), claude(t))
			assert.False(t, ok)
		})
	}
}

func TestExtractStructuredMessages_NonObjectElementsKeepPosition(t *testing.T) {
	doc := parse(t, page(`{"messages":[null,"str",{"role":"user","text":"ok"}]}`, ""))

	msgs, ok := ExtractStructuredMessages(doc, claude(t))
	require.True(t, ok)
	require.Len(t, msgs, 3)

	_, ok = ToMarkdown(msgs[0])
	assert.False(t, ok)
	got, ok := ToMarkdown(msgs[2])
	assert.True(t, ok)
	assert.Equal(t, "**user:**\nok", got)
}
