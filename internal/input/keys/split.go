package keys

import (
	"strings"
	"unicode/utf8"
)

// Split breaks a recorded sequence back into key names. Angle-bracket
// names such as <esc> stay whole; every other rune is one key.
func Split(seq string) []string {
	var out []string
	for len(seq) > 0 {
		if seq[0] == '<' {
			if end := strings.IndexByte(seq, '>'); end > 1 && !strings.ContainsAny(seq[1:end], "< ") {
				out = append(out, seq[:end+1])
				seq = seq[end+1:]
				continue
			}
		}
		_, size := utf8.DecodeRuneInString(seq)
		out = append(out, seq[:size])
		seq = seq[size:]
	}
	return out
}

// Join concatenates key names into a sequence.
func Join(keys []string) string {
	return strings.Join(keys, "")
}
