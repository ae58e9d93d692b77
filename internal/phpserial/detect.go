package phpserial

import (
	"strconv"
	"strings"
)

// IsSerialized reports whether s looks like a serialized PHP value, using the
// same strict heuristics as WordPress' is_serialized(). It does not decode s.
func IsSerialized(s string) bool {
	return isSerialized(s, true)
}

func isSerialized(s string, strict bool) bool {
	s = strings.TrimSpace(s)
	if s == "N;" {
		return true
	}
	if len(s) < 4 || s[1] != ':' {
		return false
	}
	if strict {
		last := s[len(s)-1]
		if last != ';' && last != '}' {
			return false
		}
	} else {
		semicolon := strings.IndexByte(s, ';')
		brace := strings.IndexByte(s, '}')
		if semicolon < 0 && brace < 0 {
			return false
		}
		if semicolon >= 0 && semicolon < 3 {
			return false
		}
		if brace >= 0 && brace < 4 {
			return false
		}
	}

	token := s[0]
	switch token {
	case 's':
		if strict {
			if s[len(s)-2] != '"' {
				return false
			}
		} else if !strings.Contains(s, `"`) {
			return false
		}
		return hasCountPrefix(s)
	case 'a', 'O', 'C', 'E':
		return hasCountPrefix(s)
	case 'b', 'i', 'd':
		rest := s[2:]
		n := 0
		for n < len(rest) && strings.IndexByte("0123456789.E+-", rest[n]) >= 0 {
			n++
		}
		if n == 0 || n >= len(rest) || rest[n] != ';' {
			return false
		}
		return !strict || n == len(rest)-1
	}
	return false
}

// hasCountPrefix matches ^X:[0-9]+: on s.
func hasCountPrefix(s string) bool {
	rest := s[2:]
	n := 0
	for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
		n++
	}
	return n > 0 && n < len(rest) && rest[n] == ':'
}

// MaybeUnserialize decodes s when it looks serialized, and otherwise returns
// it as a String. Input that looks serialized but fails to decode is also
// returned as a String, together with the decoding error.
func MaybeUnserialize(s string) (Value, error) {
	if !IsSerialized(s) {
		return String(s), nil
	}
	v, err := Unmarshal(strings.TrimSpace(s))
	if err != nil {
		return String(s), err
	}
	return v, nil
}

// MaybeSerialize prepares v for storage the way WordPress' maybe_serialize()
// does: arrays and objects are serialized, strings that already look
// serialized are serialized once more, and other scalars are stored as text.
func MaybeSerialize(v Value) string {
	switch t := v.(type) {
	case Array, Object, Custom, Enum:
		return Marshal(v)
	case String:
		if isSerialized(string(t), false) {
			return Marshal(v)
		}
		return string(t)
	}
	return Text(v)
}

// Text converts a scalar to the string PHP would produce for it.
// Compound values yield their serialized form.
func Text(v Value) string {
	switch t := v.(type) {
	case nil, Null:
		return ""
	case Bool:
		if t {
			return "1"
		}
		return ""
	case Int:
		return strconv.FormatInt(int64(t), 10)
	case Float:
		if t.Raw != "" {
			return t.Raw
		}
		return formatFloat(t.V)
	case String:
		return string(t)
	}
	return Marshal(v)
}
