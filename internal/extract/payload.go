package extract

import (
	"encoding/json"
	"strings"

	"github.com/Kairiskai/MemoAI/internal/document"
	"github.com/Kairiskai/MemoAI/internal/provider"
)

// ExtractStructuredMessages reads the profile's embedded state script and
// returns the first message array found along the profile's key-paths. The
// array may be empty. ok is false when the script is missing, is not valid
// JSON, or no path resolves to an array.
func ExtractStructuredMessages(doc *document.Document, p *provider.Profile) (msgs []RawMessage, ok bool) {
	if p.StateScriptID == "" {
		return nil, false
	}
	raw, found := doc.ScriptByID(p.StateScriptID)
	if !found || strings.TrimSpace(raw) == "" {
		return nil, false
	}

	// Unmarshal validates the whole blob up front; nested values stay raw
	// and are only decoded along the probed paths.
	var root json.RawMessage
	if err := json.Unmarshal([]byte(raw), &root); err != nil {
		return nil, false
	}

	for _, path := range p.MessagePaths {
		arr, ok := resolveArray(root, path)
		if ok {
			return decodeMessages(arr), true
		}
	}
	return nil, false
}

func resolveArray(root json.RawMessage, path []string) ([]json.RawMessage, bool) {
	cur := root
	for _, key := range path {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(cur, &obj); err != nil {
			return nil, false
		}
		next, ok := obj[key]
		if !ok {
			return nil, false
		}
		cur = next
	}
	if len(cur) == 0 || cur[0] != '[' {
		return nil, false
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(cur, &arr); err != nil {
		return nil, false
	}
	return arr, true
}

// decodeMessages keeps array order. Elements that are not objects decode
// to a zero RawMessage, which ToMarkdown drops.
func decodeMessages(arr []json.RawMessage) []RawMessage {
	msgs := make([]RawMessage, len(arr))
	for i, el := range arr {
		if len(el) == 0 || el[0] != '{' {
			continue
		}
		_ = json.Unmarshal(el, &msgs[i])
	}
	return msgs
}
