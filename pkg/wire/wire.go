// Package wire holds JSON value types that accept both the typed JSON form
// and the string form produced when a form post is re-encoded as JSON.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Bool decodes a JSON bool or its string form. Only true and "true" decode
// as true.
type Bool bool

func (b *Bool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*b = false
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = strings.TrimSpace(s) == "true"
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode boolean: %w", err)
	}
	*b = Bool(v)
	return nil
}

// OptionalBool is a Bool that remembers whether it was sent at all.
type OptionalBool struct {
	Set   bool
	Value bool
}

func (o *OptionalBool) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = OptionalBool{}
		return nil
	}
	var b Bool
	if err := b.UnmarshalJSON(data); err != nil {
		return err
	}
	*o = OptionalBool{Set: true, Value: bool(b)}
	return nil
}

// Ptr returns nil when the value was not sent.
func (o OptionalBool) Ptr() *bool {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

// StringList decodes a JSON array of strings, a single string, or a string
// holding a JSON array (as multipart clients send list fields). Empty
// entries are dropped.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	var items []string
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("decode list: %w", err)
		}
	} else {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode list: %w", err)
		}
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "[") {
			if err := json.Unmarshal([]byte(s), &items); err != nil {
				return fmt.Errorf("decode list: %w", err)
			}
		} else {
			items = []string{s}
		}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	*l = out
	return nil
}
