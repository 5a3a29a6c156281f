package provider

// RoleLookup names one attribute lookup in a role fallback chain.
type RoleLookup struct {
	Attr string
	// Descendant looks the attribute up on the first descendant carrying it
	// instead of on the message node itself.
	Descendant bool
}

// Profile encodes one provider's markup and JSON conventions. The registry
// hands out copies, so a caller editing one cannot affect later lookups.
type Profile struct {
	Name string

	// StateScriptID is the id of the <script> holding the embedded state blob.
	StateScriptID string
	// MessagePaths are probed in order; the first that resolves to an array wins.
	MessagePaths [][]string

	// ShareRootMarker detects a dedicated share view.
	ShareRootMarker []string
	// ShareMessageContainer selects messages when a share view is detected.
	ShareMessageContainer []string
	// MessageContainer selects messages on generic pages.
	MessageContainer []string
	// RichTextBody locates the formatted body inside a message node.
	RichTextBody []string
	// RoleAttribute is the ordered role fallback chain.
	RoleAttribute []RoleLookup

	// PlainTextRegions are tried in order by the last-resort text fallback.
	PlainTextRegions []string
}

func (p Profile) clone() *Profile {
	c := p
	c.MessagePaths = make([][]string, len(p.MessagePaths))
	for i, path := range p.MessagePaths {
		c.MessagePaths[i] = append([]string(nil), path...)
	}
	c.ShareRootMarker = append([]string(nil), p.ShareRootMarker...)
	c.ShareMessageContainer = append([]string(nil), p.ShareMessageContainer...)
	c.MessageContainer = append([]string(nil), p.MessageContainer...)
	c.RichTextBody = append([]string(nil), p.RichTextBody...)
	c.RoleAttribute = append([]RoleLookup(nil), p.RoleAttribute...)
	c.PlainTextRegions = append([]string(nil), p.PlainTextRegions...)
	return &c
}

// nextDataPaths are the key-paths Next.js share pages have used for the
// message list.
var nextDataPaths = [][]string{
	{"props", "pageProps", "conversation", "messages"},
	{"props", "pageProps", "messages"},
	{"props", "messages"},
	{"messages"},
}

func claudeProfile() Profile {
	return Profile{
		Name:                  "Claude",
		StateScriptID:         "__NEXT_DATA__",
		MessagePaths:          nextDataPaths,
		ShareRootMarker:       []string{`[data-testid="share-root"]`, `main [data-testid="message"]`},
		ShareMessageContainer: []string{`main [data-testid="message"]`},
		MessageContainer:      []string{`[data-testid="message"]`, `[data-author]`, `[data-role]`, `article`},
		RichTextBody:          []string{`[data-testid="message-text"]`, `.markdown`, `.prose`, `[data-markdown]`},
		RoleAttribute: []RoleLookup{
			{Attr: "data-author"},
			{Attr: "data-role"},
			{Attr: "data-role", Descendant: true},
		},
		PlainTextRegions: []string{"main", "body"},
	}
}

func chatGPTProfile() Profile {
	return Profile{
		Name:                  "ChatGPT",
		StateScriptID:         "__NEXT_DATA__",
		MessagePaths:          nextDataPaths,
		ShareRootMarker:       []string{`main [data-message-author-role]`},
		ShareMessageContainer: []string{`main [data-message-author-role]`},
		MessageContainer: []string{
			`[data-message-author-role]`,
			`[data-testid^="conversation-turn"]`,
			`[data-author]`,
			`[data-role]`,
			`article`,
		},
		RichTextBody: []string{`.markdown`, `.prose`, `.whitespace-pre-wrap`, `[data-markdown]`},
		RoleAttribute: []RoleLookup{
			{Attr: "data-message-author-role"},
			{Attr: "data-author"},
			{Attr: "data-role"},
			{Attr: "data-message-author-role", Descendant: true},
		},
		PlainTextRegions: []string{"main", "body"},
	}
}
