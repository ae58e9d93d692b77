package rawreplace

import "strings"

func fixture() string {
	return strings.ReplaceAll("s:3:\"abc\";", "abc", "xyz")
}
