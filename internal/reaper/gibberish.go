package reaper

import "strings"

const (
	maxWordLen         = 15
	repeatWindow       = 3
	minLettersForRatio = 4
	maxConsonantRatio  = 0.8
)

// IsGibberish reports whether the last word of text looks like key-mashing.
// Only the final whitespace-delimited token is inspected, plus the two
// tokens before it for the repetition rule.
func IsGibberish(text string) bool {
	words := strings.Fields(text)
	if len(words) == 0 {
		return false
	}
	last := words[len(words)-1]
	if len([]rune(last)) > maxWordLen {
		return true
	}
	if repeatedTail(words) {
		return true
	}
	return consonantHeavy(last)
}

// CountWords returns the number of whitespace-delimited words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

func repeatedTail(words []string) bool {
	if len(words) < repeatWindow {
		return false
	}
	tail := words[len(words)-repeatWindow:]
	for _, w := range tail[1:] {
		if !strings.EqualFold(w, tail[0]) {
			return false
		}
	}
	return true
}

// Letters are ASCII only; anything else is ignored by the ratio.
func consonantHeavy(word string) bool {
	letters, consonants := 0, 0
	for _, r := range strings.ToLower(word) {
		if r < 'a' || r > 'z' {
			continue
		}
		letters++
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
		default:
			consonants++
		}
	}
	if letters < minLettersForRatio {
		return false
	}
	return float64(consonants)/float64(letters) > maxConsonantRatio
}
