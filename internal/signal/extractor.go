// Package signal turns raw chat text into validated trade instructions:
// block extraction first, then per-block field parsing.
package signal

import (
	"strings"

	"signal_bridge/internal/models"
)

// RawBlock is one candidate signal span. Start is the rune-independent byte
// offset of the block inside the source text; blocks are emitted in document
// order, so offsets are strictly increasing.
type RawBlock struct {
	Text  string
	Start int
}

// Extractor splits message text into independent signal blocks keyed on
// directional keyword lines.
type Extractor struct {
	keywords      map[string]models.Side
	noisePrefixes []string
}

// DefaultKeywords is the directional keyword set of the signal format.
func DefaultKeywords() map[string]models.Side {
	return map[string]models.Side{
		"BUY":  models.SideLong,
		"SELL": models.SideShort,
	}
}

func NewExtractor(keywords map[string]models.Side, noisePrefixes []string) *Extractor {
	up := make(map[string]models.Side, len(keywords))
	for k, v := range keywords {
		up[strings.ToUpper(k)] = v
	}
	if len(noisePrefixes) == 0 {
		noisePrefixes = []string{"Timeframe:"}
	}
	return &Extractor{keywords: up, noisePrefixes: noisePrefixes}
}

// Blocks extracts every signal block from the text. A candidate starts at a
// line holding a directional keyword and runs until the next such line or end
// of text, truncated at the first blank-line separator. Noise-label lines are
// stripped; candidates left without a keyword line are discarded. Zero
// keyword lines yield an empty result, not an error.
func (e *Extractor) Blocks(text string) []RawBlock {
	text = strings.ReplaceAll(text, "\r", "")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	starts := e.keywordLineOffsets(text)
	if len(starts) == 0 {
		return nil
	}

	blocks := make([]RawBlock, 0, len(starts))
	for i, start := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		body := text[start:end]

		if cut := blankLineIndex(body); cut >= 0 {
			body = body[:cut]
		}
		body = e.stripNoiseLines(body)

		if !e.containsKeywordLine(body) {
			continue
		}
		blocks = append(blocks, RawBlock{Text: strings.TrimSpace(body), Start: start})
	}
	return blocks
}

// keywordLineOffsets returns the byte offset of every line containing a
// directional keyword as a whole word.
func (e *Extractor) keywordLineOffsets(text string) []int {
	var offsets []int
	lineStart := 0
	for lineStart <= len(text) {
		lineEnd := strings.IndexByte(text[lineStart:], '\n')
		var line string
		if lineEnd < 0 {
			line = text[lineStart:]
		} else {
			line = text[lineStart : lineStart+lineEnd]
		}
		if e.lineHasKeyword(line) {
			offsets = append(offsets, lineStart)
		}
		if lineEnd < 0 {
			break
		}
		lineStart += lineEnd + 1
	}
	return offsets
}

func (e *Extractor) lineHasKeyword(line string) bool {
	_, ok := e.firstKeyword(line)
	return ok
}

// firstKeyword scans the line word by word; keyword match is case-insensitive
// and bounded by non-alphanumeric characters.
func (e *Extractor) firstKeyword(line string) (models.Side, bool) {
	for _, word := range splitWords(line) {
		if side, ok := e.keywords[strings.ToUpper(word)]; ok {
			return side, true
		}
	}
	return "", false
}

func (e *Extractor) containsKeywordLine(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		if e.lineHasKeyword(line) {
			return true
		}
	}
	return false
}

func (e *Extractor) stripNoiseLines(body string) string {
	lines := strings.Split(body, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if e.isNoise(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func (e *Extractor) isNoise(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range e.noisePrefixes {
		if len(trimmed) >= len(prefix) && strings.EqualFold(trimmed[:len(prefix)], prefix) {
			return true
		}
	}
	return false
}

// blankLineIndex finds the first blank-line separator: a newline followed by
// optional whitespace and another newline.
func blankLineIndex(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' {
			continue
		}
		j := i + 1
		for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
			j++
		}
		if j < len(s) && s[j] == '\n' {
			return i
		}
	}
	return -1
}

// splitWords cuts a line into alphanumeric word tokens.
func splitWords(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return !isWordRune(r)
	})
}

func isWordRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}
