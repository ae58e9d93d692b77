package rawreplace

import (
	"bytes"
	"strings"
)

func rewrite(content string) string {
	content = strings.ReplaceAll(content, "http://old.example", "https://new.example") // want `rawreplace strings.ReplaceAll may corrupt serialized values`
	r := strings.NewReplacer("a", "b")                                                // want `rawreplace strings.NewReplacer may corrupt serialized values`
	return r.Replace(content)
}

func rewriteBytes(b []byte) []byte {
	return bytes.Replace(b, []byte("old"), []byte("new"), -1) // want `rawreplace bytes.Replace may corrupt serialized values`
}

func trim(s string) string {
	return strings.TrimRight(s, "/")
}
