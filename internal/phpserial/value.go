// Package phpserial implements PHP's native serialize/unserialize format as
// stored by WordPress in the options table and in post meta.
//
// Decoded values are represented by a closed set of types implementing Value.
// Arrays and objects keep their entry order, and floats keep their original
// text, so that Marshal(Unmarshal(s)) reproduces s byte for byte.
package phpserial

import (
	"strconv"
)

// Kind identifies the concrete type behind a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
	KindCustom
	KindEnum
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindCustom:
		return "custom"
	case KindEnum:
		return "enum"
	case KindRef:
		return "ref"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a decoded PHP value.
type Value interface {
	Kind() Kind
}

// Null is PHP null (N;).
type Null struct{}

// Bool is a PHP boolean (b:0; / b:1;).
type Bool bool

// Int is a PHP integer (i:42;).
type Int int64

// Float is a PHP float (d:1.5;). Raw holds the encoded text when the value was
// decoded, and is preferred over V when re-encoding.
type Float struct {
	V   float64
	Raw string
}

// String is a PHP byte string (s:3:"abc";).
type String string

// Key is an array key or object property name. PHP keys are either
// integers or byte strings.
type Key struct {
	Str   string
	Int   int64
	IsStr bool
}

// Entry is one key/value pair of an Array or an Object.
type Entry struct {
	Key   Key
	Value Value
}

// Array is a PHP ordered map (a:N:{...}).
type Array struct {
	Entries []Entry
}

// Object is a PHP object serialized property by property (O:...).
// Private and protected property names keep their NUL-delimited prefixes.
type Object struct {
	Class string
	Props []Entry
}

// Custom is an object implementing PHP's Serializable interface (C:...).
// Its payload is produced by the class itself and is opaque here.
type Custom struct {
	Class   string
	Payload string
}

// Enum is a PHP 8.1 enum case (E:...), stored as "Class:Case".
type Enum string

// Ref is a back-reference to an earlier value (r: and R:).
type Ref struct {
	Index int64
	// Strong marks a PHP reference (R:) as opposed to an object handle (r:).
	Strong bool
}

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Int) Kind() Kind    { return KindInt }
func (Float) Kind() Kind  { return KindFloat }
func (String) Kind() Kind { return KindString }
func (Array) Kind() Kind  { return KindArray }
func (Object) Kind() Kind { return KindObject }
func (Custom) Kind() Kind { return KindCustom }
func (Enum) Kind() Kind   { return KindEnum }
func (Ref) Kind() Kind    { return KindRef }

// IntKey returns an integer key.
func IntKey(i int64) Key { return Key{Int: i} }

// StrKey returns a string key. Like PHP, decimal integer strings such as "5"
// are normalized to integer keys.
func StrKey(s string) Key {
	if i, ok := canonicalInt(s); ok {
		return Key{Int: i}
	}
	return Key{Str: s, IsStr: true}
}

// String renders the key the way PHP would print it.
func (k Key) String() string {
	if k.IsStr {
		return k.Str
	}
	return strconv.FormatInt(k.Int, 10)
}

// List builds an Array with keys 0..n-1.
func List(values ...Value) Array {
	entries := make([]Entry, len(values))
	for i, v := range values {
		entries[i] = Entry{Key: IntKey(int64(i)), Value: v}
	}
	return Array{Entries: entries}
}

// Map builds an Array from alternating string keys and values in order.
func Map(pairs ...any) Array {
	entries := make([]Entry, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		k, _ := pairs[i].(string)
		v, _ := pairs[i+1].(Value)
		entries = append(entries, Entry{Key: StrKey(k), Value: v})
	}
	return Array{Entries: entries}
}

// Equal reports whether k and o address the same PHP array slot. Decoded
// keys keep their stored form, so s:1:"5" and i:5 differ as Keys but are equal
// here, as they are to PHP.
func (k Key) Equal(o Key) bool {
	return k.normalized() == o.normalized()
}

func (k Key) normalized() Key {
	if k.IsStr {
		return StrKey(k.Str)
	}
	return k
}

// Get returns the value stored under key k, if any. Keys are compared with
// Equal.
func (a Array) Get(k Key) (Value, bool) {
	for _, e := range a.Entries {
		if e.Key.Equal(k) {
			return e.Value, true
		}
	}
	return nil, false
}

// Prop returns the property with the given name, if any.
func (o Object) Prop(name string) (Value, bool) {
	for _, e := range o.Props {
		if e.Key.IsStr && e.Key.Str == name {
			return e.Value, true
		}
	}
	return nil, false
}

// NewFloat returns a Float with no recorded text.
func NewFloat(f float64) Float { return Float{V: f} }

// canonicalInt reports whether s is a decimal integer in PHP's canonical
// form (no leading zeros or plus sign) that fits in an int64.
func canonicalInt(s string) (int64, bool) {
	if s == "" || len(s) > 20 {
		return 0, false
	}
	digits := s
	if s[0] == '-' {
		digits = s[1:]
	}
	if digits == "" || (digits[0] == '0' && (len(digits) > 1 || s[0] == '-')) {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}
