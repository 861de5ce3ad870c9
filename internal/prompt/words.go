// Package prompt picks seed words for writing prompts.
package prompt

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed seeds.txt
var embeddedSeeds string

const minSeedLen = 4

// DefaultWords returns the seed words bundled with the binary.
func DefaultWords() []string {
	words, err := readWords(strings.NewReader(embeddedSeeds))
	if err != nil {
		panic(fmt.Sprintf("embedded seed list: %v", err))
	}
	return words
}

// LoadWords reads one word per line from path, keeping usable seeds.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()
	return readWords(file)
}

func readWords(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if !usableSeed(line) {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}

// usableSeed keeps lowercase ASCII words long enough to write about.
func usableSeed(word string) bool {
	if len(word) < minSeedLen {
		return false
	}
	for i := 0; i < len(word); i++ {
		ch := word[i]
		if ch < 'a' || ch > 'z' {
			return false
		}
	}
	return true
}
