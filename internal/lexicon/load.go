package lexicon

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Load reads a filler lexicon with one token per line. Blank lines and
// lines starting with '#' are ignored.
func Load(lang, path string) (*Lexicon, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only lexicon.
			_ = cerr
		}
	}()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("lexicon is empty")
	}
	return New(lang, words...), nil
}
