package objectspace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Canonicalize converts an arbitrary Go value into its canonical Value
// tree by round-tripping it through encoding/json: marshal to JSON (this is
// also where NaN/Inf floats are caught, the same place json.Marshal itself
// rejects them), then decode token-by-token with UseNumber so integers and
// floats stay distinguishable and object field order survives.
func Canonicalize(v any) (Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		var uve *json.UnsupportedValueError
		if errors.As(err, &uve) && (uve.Value.Kind() == reflect.Float32 || uve.Value.Kind() == reflect.Float64) {
			return Value{}, fmt.Errorf("objectspace: canonicalize: %w", ErrNaN)
		}
		return Value{}, fmt.Errorf("objectspace: canonicalize: %w: %v", ErrNotSerializable, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("objectspace: canonicalize: %w: %v", ErrNotSerializable, err)
	}
	cv, err := decodeToken(dec, tok)
	if err != nil {
		return Value{}, fmt.Errorf("objectspace: canonicalize: %w: %v", ErrNotSerializable, err)
	}
	return cv, nil
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Value{Kind: KindNull}, nil
	case bool:
		return Value{Kind: KindBool, Bool: t}, nil
	case json.Number:
		return numberValue(t)
	case string:
		return Value{Kind: KindString, Str: t}, nil
	case json.Delim:
		switch t {
		case '[':
			var arr []Value
			for dec.More() {
				elemTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				ev, err := decodeToken(dec, elemTok)
				if err != nil {
					return Value{}, err
				}
				arr = append(arr, ev)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Value{}, err
			}
			return Value{Kind: KindArray, Arr: arr}, nil
		case '{':
			var obj []ObjectField
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("objectspace: expected object key, got %v", keyTok)
				}
				valTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				vv, err := decodeToken(dec, valTok)
				if err != nil {
					return Value{}, err
				}
				obj = append(obj, ObjectField{Key: key, Value: vv})
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Value{}, err
			}
			return Value{Kind: KindObject, Obj: obj}, nil
		}
	}
	return Value{}, fmt.Errorf("objectspace: unexpected JSON token %v", tok)
}

func numberValue(n json.Number) (Value, error) {
	if i, err := n.Int64(); err == nil {
		return Value{Kind: KindInt, Int: i}, nil
	}
	f, err := n.Float64()
	if err != nil {
		return Value{}, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, ErrNaN
	}
	return Value{Kind: KindFloat, Float: f}, nil
}

// Decode converts a canonical Value back into a Go value by deflattening
// it, projecting it to a plain any tree, and round-tripping that through
// encoding/json into out.
func Decode(v Value, out any) error {
	dv := deflatten(v)
	data, err := json.Marshal(dv.toAny())
	if err != nil {
		return fmt.Errorf("objectspace: decode: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("objectspace: decode: %w", err)
	}
	return nil
}

func (v Value) toAny() any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString:
		return v.Str
	case KindArray:
		out := make([]any, len(v.Arr))
		for i, e := range v.Arr {
			out[i] = e.toAny()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.Obj))
		for _, f := range v.Obj {
			out[f.Key] = f.Value.toAny()
		}
		return out
	default:
		return nil
	}
}

// flatten hoists one level of nested Object fields into dotted keys at a
// time, recursing into each hoisted child. Non-Object values pass through
// unchanged. Because only one level is hoisted per step, a field nested
// three or more levels deep ends up as a two-component dotted key whose
// value is itself an unindexed Object (see indexableLeaves) rather than a
// single fully-flat path — this mirrors flatten_value_map in the original
// entry implementation exactly, warts included. Keys are joined with '.'
// and never escaped, so a field name that itself contains '.' cannot be
// told apart from a nested path, here or in deflatten.
func flatten(v Value) Value {
	if v.Kind != KindObject {
		return v
	}
	return Value{Kind: KindObject, Obj: flattenFields(v.Obj)}
}

func flattenFields(fields []ObjectField) []ObjectField {
	var out []ObjectField
	for _, f := range fields {
		if f.Value.Kind == KindObject {
			for _, inner := range f.Value.Obj {
				newKey := f.Key + "." + inner.Key
				out = upsertLast(out, newKey, flatten(inner.Value))
			}
		} else {
			out = upsertLast(out, f.Key, f.Value)
		}
	}
	return out
}

// upsertLast overwrites key's value if already present (last write wins),
// matching the plain Map::insert used by flatten_value_map.
func upsertLast(fields []ObjectField, key string, val Value) []ObjectField {
	for i := range fields {
		if fields[i].Key == key {
			fields[i].Value = val
			return fields
		}
	}
	return append(fields, ObjectField{Key: key, Value: val})
}

// deflatten is flatten's inverse: keys are split on their first '.' only,
// and values grouped under a shared prefix are recursively deflattened.
// Within a single prefix group, the first value inserted for a given
// sub-path wins on collision; the reconstructed nested object then
// overwrites any top-level field that happens to share the prefix's name.
func deflatten(v Value) Value {
	if v.Kind != KindObject {
		return v
	}
	return Value{Kind: KindObject, Obj: deflattenFields(v.Obj)}
}

func deflattenFields(fields []ObjectField) []ObjectField {
	result := newFieldBuilder()
	groups := map[string]*fieldBuilder{}
	var groupOrder []string

	for _, f := range fields {
		head, rest, hasRest := splitFirstDot(f.Key)
		if !hasRest {
			result.orInsert(head, f.Value)
			continue
		}
		g, ok := groups[head]
		if !ok {
			g = newFieldBuilder()
			groups[head] = g
			groupOrder = append(groupOrder, head)
		}
		g.orInsert(rest, f.Value)
	}

	for _, head := range groupOrder {
		nested := Value{Kind: KindObject, Obj: groups[head].fields}
		result.overwrite(head, deflatten(nested))
	}

	return result.fields
}

func splitFirstDot(key string) (head, rest string, hasRest bool) {
	if i := strings.IndexByte(key, '.'); i >= 0 {
		return key[:i], key[i+1:], true
	}
	return key, "", false
}

// fieldBuilder accumulates ObjectFields while tracking each key's position,
// supporting both first-wins (orInsert) and last-wins (overwrite) updates.
type fieldBuilder struct {
	fields []ObjectField
	pos    map[string]int
}

func newFieldBuilder() *fieldBuilder {
	return &fieldBuilder{pos: map[string]int{}}
}

func (b *fieldBuilder) orInsert(key string, val Value) {
	if _, ok := b.pos[key]; ok {
		return
	}
	b.pos[key] = len(b.fields)
	b.fields = append(b.fields, ObjectField{Key: key, Value: val})
}

func (b *fieldBuilder) overwrite(key string, val Value) {
	if idx, ok := b.pos[key]; ok {
		b.fields[idx].Value = val
		return
	}
	b.pos[key] = len(b.fields)
	b.fields = append(b.fields, ObjectField{Key: key, Value: val})
}
