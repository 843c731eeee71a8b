// Package watermark persists the last processed message identifier per
// channel. The pipeline itself never touches the store: the poll loop owns
// the cursor and advances it only after every block of a message resolved,
// so a restart cannot skip unresolved blocks.
package watermark

import "context"

type Store interface {
	Load(ctx context.Context, channelID string) (int64, error)
	Save(ctx context.Context, channelID string, lastID int64) error
}
