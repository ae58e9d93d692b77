package phpserial

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// ClassKey is the map key ToGo uses to carry an object's class name.
const ClassKey = "__class"

// FromGo converts a JSON-decoded Go value into a Value. Maps become arrays
// with their keys sorted, since Go maps carry no order.
func FromGo(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case int:
		return Int(t), nil
	case int64:
		return Int(t), nil
	case float64:
		return NewFloat(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("phpserial: number %q: %w", t, err)
		}
		return Float{V: f, Raw: t.String()}, nil
	case []any:
		entries := make([]Entry, len(t))
		for i, item := range t {
			cv, err := FromGo(item)
			if err != nil {
				return nil, err
			}
			entries[i] = Entry{Key: IntKey(int64(i)), Value: cv}
		}
		return Array{Entries: entries}, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			if k != ClassKey {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		entries := make([]Entry, 0, len(keys))
		for _, k := range keys {
			cv, err := FromGo(t[k])
			if err != nil {
				return nil, err
			}
			entries = append(entries, Entry{Key: StrKey(k), Value: cv})
		}
		if class, ok := t[ClassKey].(string); ok {
			for i := range entries {
				if !entries[i].Key.IsStr {
					entries[i].Key = Key{Str: entries[i].Key.String(), IsStr: true}
				}
			}
			return Object{Class: class, Props: entries}, nil
		}
		return Array{Entries: entries}, nil
	}
	return nil, fmt.Errorf("phpserial: unsupported Go type %T", v)
}

// ToGo converts v into plain Go values suitable for encoding/json. Arrays
// keyed 0..n-1 become slices, other arrays and objects become maps, and
// objects record their class under ClassKey.
func ToGo(v Value) any {
	switch t := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(t)
	case Int:
		return int64(t)
	case Float:
		return t.V
	case String:
		return string(t)
	case Array:
		if isList(t.Entries) {
			out := make([]any, len(t.Entries))
			for i, e := range t.Entries {
				out[i] = ToGo(e.Value)
			}
			return out
		}
		return entriesToMap(t.Entries)
	case Object:
		m := entriesToMap(t.Props)
		m[ClassKey] = t.Class
		return m
	case Custom:
		return map[string]any{ClassKey: t.Class, "payload": t.Payload}
	case Enum:
		return string(t)
	case Ref:
		return "ref:" + strconv.FormatInt(t.Index, 10)
	}
	return nil
}

func isList(entries []Entry) bool {
	for i, e := range entries {
		if e.Key.IsStr || e.Key.Int != int64(i) {
			return false
		}
	}
	return true
}

func entriesToMap(entries []Entry) map[string]any {
	m := make(map[string]any, len(entries))
	for _, e := range entries {
		m[e.Key.String()] = ToGo(e.Value)
	}
	return m
}
