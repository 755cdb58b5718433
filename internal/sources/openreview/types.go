package openreview

import "encoding/json"

// NotesResponse is the envelope of a notes query.
type NotesResponse struct {
	Notes []Note `json:"notes"`
	Count int    `json:"count"`
}

// Note is one OpenReview note. Content field values differ between API
// versions: v1 returns bare JSON values, v2 wraps each one in an object
// with a "value" key. Fields are kept raw and unwrapped on access.
type Note struct {
	ID      string                     `json:"id"`
	Forum   string                     `json:"forum"`
	Content map[string]json.RawMessage `json:"content"`
}

// ContentString returns the named content field as a string, unwrapping
// one level of {"value": ...} nesting if present.
func (n *Note) ContentString(field string) string {
	raw, ok := n.Content[field]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var wrapped struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		return wrapped.Value
	}
	return ""
}

// Abstract returns the note's abstract, falling back to the short-summary
// field some venues use instead.
func (n *Note) Abstract() string {
	if abstract := n.ContentString("abstract"); abstract != "" {
		return abstract
	}
	return n.ContentString("TL;DR")
}

// Title returns the note's title.
func (n *Note) Title() string {
	return n.ContentString("title")
}
