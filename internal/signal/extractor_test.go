package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_bridge/internal/models"
)

func newTestExtractor() *Extractor {
	return NewExtractor(DefaultKeywords(), nil)
}

func TestExtractorSingleBlock(t *testing.T) {
	text := "BUY on SOL/USD\nPrice: 100\nTP 1: 105\nTP 2: 110\nSL: 95"

	blocks := newTestExtractor().Blocks(text)
	require.Len(t, blocks, 1)
	assert.Equal(t, 0, blocks[0].Start)
	assert.Contains(t, blocks[0].Text, "BUY on SOL/USD")
	assert.Contains(t, blocks[0].Text, "SL: 95")
}

func TestExtractorTwoBlocksInOrder(t *testing.T) {
	text := "BUY on SOL/USD\nPrice: 100\nTP 1: 105\nTP 2: 110\nSL: 95\n" +
		"SELL on XRP/USD\nPrice: 2\nTP 1: 1.9\nTP 2: 1.8\nSL: 2.1"

	blocks := newTestExtractor().Blocks(text)
	require.Len(t, blocks, 2)
	assert.Less(t, blocks[0].Start, blocks[1].Start)
	assert.Contains(t, blocks[0].Text, "BUY")
	assert.Contains(t, blocks[1].Text, "SELL")
	assert.NotContains(t, blocks[0].Text, "SELL")
}

func TestExtractorBlankLineTruncates(t *testing.T) {
	text := "BUY on SOL/USD\nPrice: 100\n\nsome trailing commentary\nmore chatter"

	blocks := newTestExtractor().Blocks(text)
	require.Len(t, blocks, 1)
	assert.NotContains(t, blocks[0].Text, "commentary")
}

func TestExtractorBlankLineWithSpacesTruncates(t *testing.T) {
	text := "BUY on SOL/USD\nPrice: 100\n  \t \ntrailing"

	blocks := newTestExtractor().Blocks(text)
	require.Len(t, blocks, 1)
	assert.NotContains(t, blocks[0].Text, "trailing")
}

func TestExtractorStripsNoiseLines(t *testing.T) {
	text := "BUY on SOL/USD\nTimeframe: 4h\nPrice: 100\nSL: 95"

	blocks := newTestExtractor().Blocks(text)
	require.Len(t, blocks, 1)
	assert.NotContains(t, blocks[0].Text, "Timeframe")
	assert.Contains(t, blocks[0].Text, "Price: 100")
}

func TestExtractorKeywordMatchingIsWholeWord(t *testing.T) {
	e := newTestExtractor()

	// "BUYER" and "RESELL" must not anchor a block
	assert.Empty(t, e.Blocks("BUYER beware\nPrice: 100"))
	assert.Empty(t, e.Blocks("RESELL opportunity on SOL/USD"))

	// lower/mixed case keywords do
	assert.Len(t, e.Blocks("buy on SOL/USD\nPrice: 100"), 1)
	assert.Len(t, e.Blocks("Sell on SOL/USD\nPrice: 100"), 1)
}

func TestExtractorPunctuationBoundsKeyword(t *testing.T) {
	blocks := newTestExtractor().Blocks("🔥BUY! on SOL/USD\nPrice: 100")
	require.Len(t, blocks, 1)
}

func TestExtractorNoKeywordYieldsNothing(t *testing.T) {
	assert.Empty(t, newTestExtractor().Blocks("just market chatter\nnothing to see"))
	assert.Empty(t, newTestExtractor().Blocks(""))
	assert.Empty(t, newTestExtractor().Blocks("   \n  \n"))
}

func TestExtractorCarriageReturnsRemoved(t *testing.T) {
	text := "BUY on SOL/USD\r\nPrice: 100\r\nSL: 95"

	blocks := newTestExtractor().Blocks(text)
	require.Len(t, blocks, 1)
	assert.NotContains(t, blocks[0].Text, "\r")
}

func TestExtractorCustomKeywords(t *testing.T) {
	e := NewExtractor(map[string]models.Side{"LONG": models.SideLong}, nil)

	assert.Len(t, e.Blocks("LONG on SOL/USD\nPrice: 100"), 1)
	assert.Empty(t, e.Blocks("BUY on SOL/USD\nPrice: 100"))
}
