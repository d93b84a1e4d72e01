// Package proto defines the prototype tree: the recursive JSON-shaped value
// that describes the desired output document and carries the $-prefixed
// directives and leaf options the compiler reads.
//
// A prototype value is always one of:
//   - *Object, an ordered mapping from key to child value (mirrors a JSON
//     object, but remembers left-to-right key order, which plain
//     map[string]any in Go does not);
//   - []any, a JSON array;
//   - a leaf string recognized by ParseLeaf (a variable reference or a
//     keyed predicate);
//   - any other scalar (string, json.Number, bool, nil), passed through
//     unchanged.
package proto

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Object is an order-preserving JSON object. encoding/json's map[string]any
// forgets insertion order; the compiler's variable and WHERE-fragment
// ordering guarantees depend on the left-to-right order of prototype keys,
// so decoding goes through Object instead.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Keys returns the object's keys in insertion order. Callers must not
// mutate the returned slice.
func (o *Object) Keys() []string {
	return o.keys
}

// Len reports the number of keys.
func (o *Object) Len() int {
	return len(o.keys)
}

// Get returns the value for key and whether it was present.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Set inserts or overwrites a key. New keys are appended to the end of the
// key order; existing keys keep their position.
func (o *Object) Set(key string, value any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Delete removes a key, if present.
func (o *Object) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Clone performs a deep copy, preserving key order at every level.
func (o *Object) Clone() *Object {
	clone := &Object{
		keys:   append([]string(nil), o.keys...),
		values: make(map[string]any, len(o.values)),
	}
	for k, v := range o.values {
		clone.values[k] = CloneValue(v)
	}
	return clone
}

// CloneValue deep-copies any prototype value: *Object, []any, or a scalar
// (scalars are immutable and returned as-is).
func CloneValue(v any) any {
	switch val := v.(type) {
	case *Object:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = CloneValue(elem)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON preserves key order in the object's JSON encoding.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Decode parses JSON bytes into an order-preserving value tree. The
// top-level value need not be an object (DecodeValue is exported for
// recursive/embedded use), but Decode requires one since every document
// ingress point in this package is a JSON object.
func Decode(data []byte) (*Object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := DecodeValue(dec)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("top-level JSON value must be an object, got %T", v)
	}
	return obj, nil
}

// DecodeValue consumes the next JSON value from dec, preserving object key
// order by returning *Object for `{...}` rather than a plain map.
func DecodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected JSON delimiter %q", t)
		}
	case string, json.Number, bool, nil:
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported JSON token %T", tok)
	}
}

func decodeObject(dec *json.Decoder) (*Object, error) {
	obj := NewObject()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %T", keyTok)
		}
		val, err := DecodeValue(dec)
		if err != nil {
			return nil, err
		}
		obj.Set(key, val)
	}
	if _, err := dec.Token(); err != nil { // consume closing '}'
		return nil, err
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	arr := make([]any, 0)
	for dec.More() {
		val, err := DecodeValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
	if _, err := dec.Token(); err != nil { // consume closing ']'
		return nil, err
	}
	return arr, nil
}
