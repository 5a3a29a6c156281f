package extract

import (
	"encoding/json"
	"fmt"
	"time"
)

// Conversation is the normalized transcript produced from one snapshot.
type Conversation struct {
	Model           string    `json:"model"`
	Content         string    `json:"content"`
	ScrapedAt       time.Time `json:"scrapedAt"`
	SourceHTMLBytes int       `json:"sourceHtmlBytes"`
}

// RawMessage is one element of an embedded message array. Providers have
// shipped several shapes, so every field is kept raw and interpreted by
// ToMarkdown.
type RawMessage struct {
	Role    json.RawMessage `json:"role"`
	Author  json.RawMessage `json:"author"`
	Text    json.RawMessage `json:"text"`
	Content json.RawMessage `json:"content"`
}

// Chunk is one element of a list-valued content field.
type Chunk struct {
	Text  json.RawMessage `json:"text"`
	Value json.RawMessage `json:"value"`
}

// MalformedInputError means the input could not be treated as markup at
// all. Retrying with the same input will not help.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// asString decodes raw when it holds a JSON string. Absent fields, null and
// non-string values all report ok=false.
func asString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
