package relocate

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"relocate/internal/phpserial"
)

// ErrOpaqueRecord is matched by errors reporting a record the replacer could
// not walk. The record is left unchanged in the returned value.
var ErrOpaqueRecord = errors.New("opaque record left unchanged")

// OpaqueRecordError locates a custom-serialized object inside a value.
type OpaqueRecordError struct {
	Path  string
	Class string
}

func (e *OpaqueRecordError) Error() string {
	return fmt.Sprintf("%s: %s object is custom-serialized: %v", e.Path, e.Class, ErrOpaqueRecord)
}

func (e *OpaqueRecordError) Is(target error) bool { return target == ErrOpaqueRecord }

// Replace applies the rule to v and returns a value of the same shape:
//
//   - serialized strings are decoded, rewritten and encoded again, once;
//   - arrays and objects are copied with every value rewritten, keys and
//     property names untouched;
//   - plain strings get every non-overlapping occurrence of the old prefix
//     replaced, literally and case-sensitively;
//   - anything else is returned as is.
//
// v is never modified. The returned error, if any, lists the parts of v that
// were left unchanged because they could not be walked; the returned value is
// usable either way.
func (r Rule) Replace(v phpserial.Value) (phpserial.Value, error) {
	var errs error
	out := r.replace(v, "$", &errs)
	return out, errs
}

// ReplaceString is Replace for a single stored string.
func (r Rule) ReplaceString(s string) (string, error) {
	out, err := r.Replace(phpserial.String(s))
	return string(out.(phpserial.String)), err
}

func (r Rule) replace(v phpserial.Value, path string, errs *error) phpserial.Value {
	switch t := v.(type) {
	case phpserial.String:
		return r.replaceString(string(t), path, errs)
	case phpserial.Array:
		return phpserial.Array{Entries: r.replaceEntries(t.Entries, path, errs)}
	case phpserial.Object:
		return phpserial.Object{Class: t.Class, Props: r.replaceEntries(t.Props, path+"->"+t.Class, errs)}
	case phpserial.Custom:
		multierr.AppendInto(errs, &OpaqueRecordError{Path: path, Class: t.Class})
		return t
	}
	return v
}

func (r Rule) replaceEntries(entries []phpserial.Entry, path string, errs *error) []phpserial.Entry {
	if entries == nil {
		return nil
	}
	out := make([]phpserial.Entry, len(entries))
	for i, e := range entries {
		out[i] = phpserial.Entry{
			Key:   e.Key,
			Value: r.replace(e.Value, path+"["+e.Key.String()+"]", errs),
		}
	}
	return out
}

func (r Rule) replaceString(s, path string, errs *error) phpserial.Value {
	if r.old == "" {
		return phpserial.String(s)
	}
	if phpserial.IsSerialized(s) {
		trimmed := strings.TrimSpace(s)
		decoded, err := phpserial.Unmarshal(trimmed)
		if err != nil {
			multierr.AppendInto(errs, fmt.Errorf("%s: %w", path, err))
			return phpserial.String(s)
		}
		lead := s[:strings.Index(s, trimmed)]
		trail := s[len(lead)+len(trimmed):]
		encoded := phpserial.Marshal(r.replace(decoded, path+"<serialized>", errs))
		return phpserial.String(lead + encoded + trail)
	}
	return phpserial.String(strings.ReplaceAll(s, r.old, r.new))
}
