package phpserial

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSyntax is matched by every error returned from Unmarshal.
var ErrSyntax = errors.New("phpserial: syntax error")

// maxDepth bounds nesting so that hostile input cannot exhaust the stack.
const maxDepth = 512

// SyntaxError describes malformed input and where it was detected.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("phpserial: %s at offset %d", e.Msg, e.Offset)
}

// Is makes errors.Is(err, ErrSyntax) true for every SyntaxError.
func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// Unmarshal decodes one serialized PHP value. The whole input must be
// consumed.
func Unmarshal(s string) (Value, error) {
	d := &decoder{data: s}
	v, err := d.value(0)
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, d.errorf("unexpected trailing data")
	}
	return v, nil
}

type decoder struct {
	data string
	pos  int
}

func (d *decoder) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: d.pos, Msg: fmt.Sprintf(format, args...)}
}

func (d *decoder) value(depth int) (Value, error) {
	if depth > maxDepth {
		return nil, d.errorf("nesting too deep")
	}
	if d.pos >= len(d.data) {
		return nil, d.errorf("unexpected end of input")
	}
	token := d.data[d.pos]
	switch token {
	case 'N':
		if err := d.expect("N;"); err != nil {
			return nil, err
		}
		return Null{}, nil
	case 'b':
		if err := d.expect("b:"); err != nil {
			return nil, err
		}
		n, err := d.integer(';')
		if err != nil {
			return nil, err
		}
		if n != 0 && n != 1 {
			return nil, d.errorf("invalid boolean %d", n)
		}
		return Bool(n == 1), nil
	case 'i':
		if err := d.expect("i:"); err != nil {
			return nil, err
		}
		n, err := d.integer(';')
		if err != nil {
			return nil, err
		}
		return Int(n), nil
	case 'd':
		if err := d.expect("d:"); err != nil {
			return nil, err
		}
		raw, err := d.until(';')
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, d.errorf("invalid float %q", raw)
		}
		return Float{V: f, Raw: raw}, nil
	case 's':
		if err := d.expect("s:"); err != nil {
			return nil, err
		}
		s, err := d.quoted()
		if err != nil {
			return nil, err
		}
		if err := d.expect(";"); err != nil {
			return nil, err
		}
		return String(s), nil
	case 'a':
		if err := d.expect("a:"); err != nil {
			return nil, err
		}
		entries, err := d.entries(depth)
		if err != nil {
			return nil, err
		}
		return Array{Entries: entries}, nil
	case 'O':
		if err := d.expect("O:"); err != nil {
			return nil, err
		}
		class, err := d.quoted()
		if err != nil {
			return nil, err
		}
		if err := d.expect(":"); err != nil {
			return nil, err
		}
		props, err := d.entries(depth)
		if err != nil {
			return nil, err
		}
		return Object{Class: class, Props: props}, nil
	case 'C':
		if err := d.expect("C:"); err != nil {
			return nil, err
		}
		class, err := d.quoted()
		if err != nil {
			return nil, err
		}
		if err := d.expect(":"); err != nil {
			return nil, err
		}
		n, err := d.length(':')
		if err != nil {
			return nil, err
		}
		if err := d.expect("{"); err != nil {
			return nil, err
		}
		payload, err := d.take(n)
		if err != nil {
			return nil, err
		}
		if err := d.expect("}"); err != nil {
			return nil, err
		}
		return Custom{Class: class, Payload: payload}, nil
	case 'E':
		if err := d.expect("E:"); err != nil {
			return nil, err
		}
		name, err := d.quoted()
		if err != nil {
			return nil, err
		}
		if !strings.Contains(name, ":") {
			return nil, d.errorf("invalid enum %q", name)
		}
		if err := d.expect(";"); err != nil {
			return nil, err
		}
		return Enum(name), nil
	case 'r', 'R':
		d.pos++
		if err := d.expect(":"); err != nil {
			return nil, err
		}
		n, err := d.integer(';')
		if err != nil {
			return nil, err
		}
		return Ref{Index: n, Strong: token == 'R'}, nil
	}
	return nil, d.errorf("unknown type %q", token)
}

// entries parses COUNT:{key value ...} for arrays and objects.
func (d *decoder) entries(depth int) ([]Entry, error) {
	n, err := d.length(':')
	if err != nil {
		return nil, err
	}
	if err := d.expect("{"); err != nil {
		return nil, err
	}
	// n comes from the input; cap the preallocation by what could fit.
	entries := make([]Entry, 0, min(n, (len(d.data)-d.pos)/4))
	for i := 0; i < n; i++ {
		k, err := d.key()
		if err != nil {
			return nil, err
		}
		v, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Key: k, Value: v})
	}
	if err := d.expect("}"); err != nil {
		return nil, err
	}
	return entries, nil
}

func (d *decoder) key() (Key, error) {
	if d.pos >= len(d.data) {
		return Key{}, d.errorf("unexpected end of input")
	}
	switch d.data[d.pos] {
	case 'i':
		d.pos++
		if err := d.expect(":"); err != nil {
			return Key{}, err
		}
		n, err := d.integer(';')
		if err != nil {
			return Key{}, err
		}
		return IntKey(n), nil
	case 's':
		d.pos++
		if err := d.expect(":"); err != nil {
			return Key{}, err
		}
		s, err := d.quoted()
		if err != nil {
			return Key{}, err
		}
		if err := d.expect(";"); err != nil {
			return Key{}, err
		}
		return Key{Str: s, IsStr: true}, nil
	}
	return Key{}, d.errorf("invalid key type %q", d.data[d.pos])
}

// quoted parses LEN:"bytes".
func (d *decoder) quoted() (string, error) {
	n, err := d.length(':')
	if err != nil {
		return "", err
	}
	if err := d.expect(`"`); err != nil {
		return "", err
	}
	s, err := d.take(n)
	if err != nil {
		return "", err
	}
	if err := d.expect(`"`); err != nil {
		return "", err
	}
	return s, nil
}

func (d *decoder) expect(lit string) error {
	if !strings.HasPrefix(d.data[d.pos:], lit) {
		return d.errorf("expected %q", lit)
	}
	d.pos += len(lit)
	return nil
}

func (d *decoder) take(n int) (string, error) {
	if n < 0 || d.pos+n > len(d.data) {
		return "", d.errorf("length %d exceeds input", n)
	}
	s := d.data[d.pos : d.pos+n]
	d.pos += n
	return s, nil
}

// until returns the text up to terminator and consumes the terminator.
func (d *decoder) until(terminator byte) (string, error) {
	i := strings.IndexByte(d.data[d.pos:], terminator)
	if i < 0 {
		return "", d.errorf("missing %q", terminator)
	}
	s := d.data[d.pos : d.pos+i]
	d.pos += i + 1
	return s, nil
}

func (d *decoder) integer(terminator byte) (int64, error) {
	raw, err := d.until(terminator)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(raw, "+"), 10, 64)
	if err != nil {
		return 0, d.errorf("invalid integer %q", raw)
	}
	return n, nil
}

func (d *decoder) length(terminator byte) (int, error) {
	n, err := d.integer(terminator)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > int64(len(d.data)) {
		return 0, d.errorf("invalid length %d", n)
	}
	return int(n), nil
}
