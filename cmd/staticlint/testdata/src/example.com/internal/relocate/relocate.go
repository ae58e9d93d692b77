package relocate

import "strings"

func Literal(s, from, to string) string {
	return strings.ReplaceAll(s, from, to)
}
