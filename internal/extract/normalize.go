package extract

import (
	"encoding/json"
	"strings"
)

// ToMarkdown renders one structured message as a fragment. ok is false when
// the message carries no non-blank text, in which case it is dropped.
//
// Body precedence: a string text field, then a chunk-list content, then a
// string content. The first candidate that is non-blank after trimming wins.
func ToMarkdown(m RawMessage) (string, bool) {
	body := messageBody(m)
	if body == "" {
		return "", false
	}
	return fragment(messageRole(m), body), true
}

// messageRole mirrors `role ?? author ?? ""`: a present role string wins
// even when empty.
func messageRole(m RawMessage) string {
	if r, ok := asString(m.Role); ok {
		return r
	}
	if a, ok := asString(m.Author); ok {
		return a
	}
	return ""
}

func messageBody(m RawMessage) string {
	if t, ok := asString(m.Text); ok {
		if t = strings.TrimSpace(t); t != "" {
			return t
		}
	}
	if chunks, ok := asChunks(m.Content); ok {
		if j := strings.TrimSpace(joinChunks(chunks)); j != "" {
			return j
		}
	}
	if c, ok := asString(m.Content); ok {
		return strings.TrimSpace(c)
	}
	return ""
}

func asChunks(raw json.RawMessage) ([]json.RawMessage, bool) {
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, false
	}
	return arr, true
}

// joinChunks maps each chunk to `text ?? value ?? ""`, drops blank pieces
// and joins the rest with a single newline. Non-object chunks count as blank.
func joinChunks(raw []json.RawMessage) string {
	pieces := make([]string, 0, len(raw))
	for _, el := range raw {
		if len(el) == 0 || el[0] != '{' {
			continue
		}
		var c Chunk
		if err := json.Unmarshal(el, &c); err != nil {
			continue
		}
		piece, ok := asString(c.Text)
		if !ok {
			piece, _ = asString(c.Value)
		}
		if strings.TrimSpace(piece) == "" {
			continue
		}
		pieces = append(pieces, piece)
	}
	return strings.Join(pieces, "\n")
}

// fragment prefixes body with a bold role label when role is set.
func fragment(role, body string) string {
	if role == "" {
		return body
	}
	return "**" + role + ":**\n" + body
}

func joinFragments(frags []string) string {
	return strings.Join(frags, "\n\n")
}
