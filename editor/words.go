package editor

import (
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// span is a half open range of character offsets.
type span struct {
	start, end int
}

func (s span) contains(off int) bool {
	return s.start <= off && off < s.end
}

// segment splits text at Unicode word boundaries (UAX #29) and reports
// character spans of segments which are words, that is contain at least one
// letter or digit.
func segment(text string) (words []span) {
	pos, state := 0, -1
	for rest := text; len(rest) > 0; {
		var w string
		w, rest, state = uniseg.FirstWordInString(rest, state)
		n := utf8.RuneCountInString(w)
		if isWord(w) {
			words = append(words, span{start: pos, end: pos + n})
		}
		pos += n
	}
	return words
}

func isWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return true
		}
	}
	return false
}

// wordAt returns span of the word under offset. Word starting at offset wins
// over word ending at it. When offset is not touching any word, collapsed
// span at offset is returned.
func wordAt(text string, off int) span {
	words := segment(text)
	for _, w := range words {
		if w.contains(off) {
			return w
		}
	}
	for _, w := range words {
		if w.end == off {
			return w
		}
	}
	return span{start: off, end: off}
}
