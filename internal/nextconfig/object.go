package nextconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Object is a JSON object that remembers member order and keeps every member
// value as the exact bytes it was decoded from.
type Object struct {
	keys   []string
	values map[string]json.RawMessage
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{values: map[string]json.RawMessage{}}
}

// Keys returns member names in document order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Has reports whether key is a member.
func (o *Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Raw returns the undecoded value of key.
func (o *Object) Raw(key string) (json.RawMessage, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Set replaces or appends key with the JSON encoding of value.
func (o *Object) Set(key string, value any) error {
	var raw json.RawMessage
	switch v := value.(type) {
	case json.RawMessage:
		raw = v
	case *Object:
		b, err := v.MarshalJSON()
		if err != nil {
			return err
		}
		raw = b
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("nextconfig: encode %s: %w", key, err)
		}
		raw = b
	}
	if !o.Has(key) {
		o.keys = append(o.keys, key)
	}
	o.values[key] = raw
	return nil
}

// Child decodes the member key as an object. ok is false when the member is
// absent; an error is returned when it is present but not an object.
func (o *Object) Child(key string) (*Object, bool, error) {
	raw, ok := o.values[key]
	if !ok {
		return nil, false, nil
	}
	child := NewObject()
	if err := child.UnmarshalJSON(raw); err != nil {
		return nil, true, fmt.Errorf("nextconfig: %s: %w", key, err)
	}
	return child, true, nil
}

// UnmarshalJSON decodes a JSON object, preserving member order.
func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected a JSON object, got %v", tok)
	}
	o.keys = nil
	o.values = map[string]json.RawMessage{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		if !o.Has(key) {
			o.keys = append(o.keys, key)
		}
		o.values[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes the object compactly, members in order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(o.values[k])
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}
