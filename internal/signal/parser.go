package signal

import (
	"strconv"
	"strings"

	"signal_bridge/internal/models"
	"signal_bridge/internal/symbols"
)

// Parser extracts one validated Signal from a raw block. Field extraction is
// done with explicit scanners rather than regexes: label text and numeric
// formatting are the only real variability in the format, and scanners keep
// matching unambiguous at block boundaries.
type Parser struct {
	keywords map[string]models.Side
	table    *symbols.Table
}

func NewParser(keywords map[string]models.Side, table *symbols.Table) *Parser {
	up := make(map[string]models.Side, len(keywords))
	for k, v := range keywords {
		up[strings.ToUpper(k)] = v
	}
	return &Parser{keywords: up, table: table}
}

// Parse builds a normalized Signal or fails with one of the typed errors in
// this package. UnsupportedQuoteError is a skip, everything else a drop.
func (p *Parser) Parse(block RawBlock) (models.Signal, error) {
	text := strings.TrimSpace(strings.ReplaceAll(block.Text, "\r", ""))
	if text == "" {
		return models.Signal{}, &ParseError{Field: "side"}
	}

	side, ok := p.scanSide(text)
	if !ok {
		return models.Signal{}, &ParseError{Field: "side"}
	}
	base, quote, ok := scanPair(text)
	if !ok {
		return models.Signal{}, &ParseError{Field: "pair"}
	}

	entry, ok := scanLabeled(text, "PRICE")
	if !ok {
		return models.Signal{}, &ParseError{Field: "Price"}
	}
	tp1, ok := scanLabeled(text, "TP1")
	if !ok {
		return models.Signal{}, &ParseError{Field: "TP 1"}
	}
	tp2, ok := scanLabeled(text, "TP2")
	if !ok {
		return models.Signal{}, &ParseError{Field: "TP 2"}
	}
	sl, ok := scanLabeled(text, "SL")
	if !ok {
		return models.Signal{}, &ParseError{Field: "SL"}
	}

	tradableQuote, ok := p.table.RewriteQuote(quote)
	if !ok {
		return models.Signal{}, &UnsupportedQuoteError{Quote: quote}
	}
	base = p.table.NormalizeBase(base)

	for field, v := range map[string]float64{"Price": entry, "TP 1": tp1, "TP 2": tp2, "SL": sl} {
		if v <= 0 {
			return models.Signal{}, &ParseError{Field: field}
		}
	}

	sig := models.Signal{
		Side:        side,
		Instrument:  base,
		QuoteAsset:  tradableQuote,
		Entry:       entry,
		TakeProfit1: tp1,
		TakeProfit2: tp2,
		StopLoss:    sl,
	}
	if !levelsPlausible(sig) {
		return models.Signal{}, &ImplausibleLevelsError{Side: side}
	}
	return sig, nil
}

// levelsPlausible checks the directional ordering invariant: longs need
// sl < entry < tp1 and entry < tp2, shorts the mirror. A violation is a
// validation failure, never silently corrected.
func levelsPlausible(s models.Signal) bool {
	if s.Side == models.SideLong {
		return s.StopLoss < s.Entry && s.TakeProfit1 > s.Entry && s.TakeProfit2 > s.Entry
	}
	return s.StopLoss > s.Entry && s.TakeProfit1 < s.Entry && s.TakeProfit2 < s.Entry
}

func (p *Parser) scanSide(text string) (models.Side, bool) {
	for _, word := range splitWords(text) {
		if side, ok := p.keywords[strings.ToUpper(word)]; ok {
			return side, true
		}
	}
	return "", false
}

// scanPair finds the instrument pair written as "on BASE/QUOTE"; the
// separator may be '/' or '-'.
func scanPair(text string) (base, quote string, ok bool) {
	for i := 0; i+2 <= len(text); i++ {
		if !boundaryBefore(text, i) {
			continue
		}
		if !(text[i] == 'o' || text[i] == 'O') || !(text[i+1] == 'n' || text[i+1] == 'N') {
			continue
		}
		j := i + 2
		if j < len(text) && isWordByte(text[j]) {
			continue // part of a longer word, e.g. "only"
		}
		for j < len(text) && isSpaceByte(text[j]) {
			j++
		}
		b := readWord(text, &j)
		if b == "" {
			continue
		}
		if j >= len(text) || (text[j] != '/' && text[j] != '-') {
			continue
		}
		j++
		q := readWord(text, &j)
		if q == "" {
			continue
		}
		return strings.ToUpper(b), strings.ToUpper(q), true
	}
	return "", "", false
}

// scanLabeled finds `label: <number>` anywhere in the text. Matching is
// case-insensitive, whitespace may be inserted between label characters and
// around the colon, and the number is a plain decimal.
func scanLabeled(text, label string) (float64, bool) {
	for i := 0; i < len(text); i++ {
		if !boundaryBefore(text, i) {
			continue
		}
		j, ok := matchLabel(text, i, label)
		if !ok {
			continue
		}
		for j < len(text) && isSpaceByte(text[j]) {
			j++
		}
		if j >= len(text) || text[j] != ':' {
			continue
		}
		j++
		for j < len(text) && (isSpaceByte(text[j]) || text[j] == '\n') {
			j++
		}
		if v, ok := readNumber(text, &j); ok {
			return v, true
		}
	}
	return 0, false
}

// matchLabel consumes the label characters starting at i, allowing inserted
// spaces and tabs between them. Returns the offset just past the label.
func matchLabel(text string, i int, label string) (int, bool) {
	ti := i
	for li := 0; li < len(label); li++ {
		if li > 0 {
			for ti < len(text) && isSpaceByte(text[ti]) {
				ti++
			}
		}
		if ti >= len(text) || upperByte(text[ti]) != label[li] {
			return 0, false
		}
		ti++
	}
	// the label must not continue into a longer word ("SL" vs "SLOW")
	if ti < len(text) && isWordByte(text[ti]) {
		return 0, false
	}
	return ti, true
}

// readNumber parses `[0-9]*.?[0-9]+` at *j and advances past it.
func readNumber(text string, j *int) (float64, bool) {
	start := *j
	k := start
	for k < len(text) && text[k] >= '0' && text[k] <= '9' {
		k++
	}
	intDigits := k - start
	fracDigits := 0
	end := k
	if k < len(text) && text[k] == '.' {
		k++
		for k < len(text) && text[k] >= '0' && text[k] <= '9' {
			k++
		}
		fracDigits = k - end - 1
		if fracDigits > 0 {
			end = k
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(text[start:end], 64)
	if err != nil {
		return 0, false
	}
	*j = end
	return v, true
}

func readWord(text string, j *int) string {
	start := *j
	for *j < len(text) && isWordByte(text[*j]) {
		*j++
	}
	return text[start:*j]
}

func boundaryBefore(text string, i int) bool {
	return i == 0 || !isWordByte(text[i-1])
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t'
}

func upperByte(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
