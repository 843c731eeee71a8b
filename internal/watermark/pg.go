package watermark

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"signal_bridge/pkg/db"
)

// Pg keeps the cursor in a single-row-per-channel table:
//
//	CREATE TABLE IF NOT EXISTS signal_cursor (
//	    channel_id      text PRIMARY KEY,
//	    last_message_id bigint NOT NULL
//	);
type Pg struct {
	tx db.TxManager
}

func NewPg(tx db.TxManager) *Pg {
	return &Pg{tx: tx}
}

func (p *Pg) Load(ctx context.Context, channelID string) (int64, error) {
	var lastID int64
	err := p.tx.RunMaster(ctx, func(ctx context.Context, tx db.Transaction) error {
		row := tx.QueryRow(ctx,
			`SELECT last_message_id FROM signal_cursor WHERE channel_id = $1`, channelID)
		if err := row.Scan(&lastID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				lastID = 0
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "load watermark")
	}
	return lastID, nil
}

func (p *Pg) Save(ctx context.Context, channelID string, lastID int64) error {
	err := p.tx.RunMaster(ctx, func(ctx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO signal_cursor (channel_id, last_message_id)
			 VALUES ($1, $2)
			 ON CONFLICT (channel_id)
			 DO UPDATE SET last_message_id = EXCLUDED.last_message_id`,
			channelID, lastID)
		return err
	})
	return errors.Wrap(err, "save watermark")
}
