package memory

import (
	"strings"
	"unicode"
)

// cleanGameboyTitle turns the raw header title into something printable.
// Color cartridges reuse the last title bytes for the manufacturer code and
// CGB flag, so the title stops at the first NUL.
func cleanGameboyTitle(titleBytes []byte) string {
	runes := make([]rune, 0, len(titleBytes))
	for i, b := range titleBytes {
		if b == 0 || (i == len(titleBytes)-1 && b&0x80 != 0) {
			break
		}
		r := rune(b)
		if !unicode.IsPrint(r) || r > unicode.MaxASCII {
			r = '?'
		}
		runes = append(runes, r)
	}

	title := strings.TrimSpace(string(runes))
	if title == "" {
		return "(Untitled)"
	}
	return title
}
