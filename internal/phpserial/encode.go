package phpserial

import (
	"math"
	"strconv"
	"strings"
)

// Marshal encodes v in PHP's serialize format. A nil Value encodes as N;.
func Marshal(v Value) string {
	var b strings.Builder
	encode(&b, v)
	return b.String()
}

func encode(b *strings.Builder, v Value) {
	switch t := v.(type) {
	case nil, Null:
		b.WriteString("N;")
	case Bool:
		if t {
			b.WriteString("b:1;")
		} else {
			b.WriteString("b:0;")
		}
	case Int:
		b.WriteString("i:")
		b.WriteString(strconv.FormatInt(int64(t), 10))
		b.WriteByte(';')
	case Float:
		b.WriteString("d:")
		if t.Raw != "" {
			b.WriteString(t.Raw)
		} else {
			b.WriteString(formatFloat(t.V))
		}
		b.WriteByte(';')
	case String:
		writeString(b, string(t))
		b.WriteByte(';')
	case Array:
		b.WriteString("a:")
		b.WriteString(strconv.Itoa(len(t.Entries)))
		b.WriteString(":{")
		writeEntries(b, t.Entries)
		b.WriteByte('}')
	case Object:
		b.WriteString("O:")
		writeLenPrefixed(b, t.Class)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(len(t.Props)))
		b.WriteString(":{")
		writeEntries(b, t.Props)
		b.WriteByte('}')
	case Custom:
		b.WriteString("C:")
		writeLenPrefixed(b, t.Class)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(len(t.Payload)))
		b.WriteString(":{")
		b.WriteString(t.Payload)
		b.WriteByte('}')
	case Enum:
		b.WriteString("E:")
		writeLenPrefixed(b, string(t))
		b.WriteByte(';')
	case Ref:
		if t.Strong {
			b.WriteString("R:")
		} else {
			b.WriteString("r:")
		}
		b.WriteString(strconv.FormatInt(t.Index, 10))
		b.WriteByte(';')
	}
}

func writeEntries(b *strings.Builder, entries []Entry) {
	for _, e := range entries {
		if e.Key.IsStr {
			writeString(b, e.Key.Str)
			b.WriteByte(';')
		} else {
			b.WriteString("i:")
			b.WriteString(strconv.FormatInt(e.Key.Int, 10))
			b.WriteByte(';')
		}
		encode(b, e.Value)
	}
}

// writeString writes s:LEN:"...", without the trailing semicolon.
func writeString(b *strings.Builder, s string) {
	b.WriteString("s:")
	writeLenPrefixed(b, s)
}

// writeLenPrefixed writes LEN:"s". Lengths are byte counts.
func writeLenPrefixed(b *strings.Builder, s string) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteString(`:"`)
	b.WriteString(s)
	b.WriteByte('"')
}

// formatFloat approximates PHP's shortest round-trip float output
// (serialize_precision = -1).
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	}
	if f == 0 {
		if math.Signbit(f) {
			return "-0"
		}
		return "0"
	}
	exp := math.Floor(math.Log10(math.Abs(f)))
	if exp >= -5 && exp < 15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'E', -1, 64)
	mantissa, exponent, _ := strings.Cut(s, "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	if exponent[0] == '+' || exponent[0] == '-' {
		sign := exponent[:1]
		exponent = strings.TrimLeft(exponent[1:], "0")
		return mantissa + "E" + sign + exponent
	}
	return mantissa + "E" + exponent
}
