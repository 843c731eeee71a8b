package models

// ChannelMessage is the inbound chat record as seen by the pipeline: primary
// text, optional rich embeds and an identifier that is monotonically
// increasing and comparable as an integer.
type ChannelMessage struct {
	ID      int64
	Content string
	Embeds  []Embed
}

type Embed struct {
	Description string
	Footer      string
}

// SignalText returns the text the block extractor works on: the primary
// content plus, if present, the first embed description, in that order.
func (m ChannelMessage) SignalText() string {
	if len(m.Embeds) == 0 || m.Embeds[0].Description == "" {
		return m.Content
	}
	if m.Content == "" {
		return m.Embeds[0].Description
	}
	return m.Content + "\n" + m.Embeds[0].Description
}
