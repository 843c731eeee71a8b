package runner

import (
	"context"
	"time"

	discord "signal_bridge/internal/modules/discord/service"
	health "signal_bridge/internal/modules/health/service"
	"signal_bridge/internal/watermark"
	"signal_bridge/pkg/logger"
)

// Service is the poll loop: wake on the aligned tick, fetch the newest
// channel message, run the pipeline on anything past the cursor, then
// advance the cursor only after every block has resolved. A crash mid-cycle
// therefore replays the message rather than losing it.
type Service struct {
	client   *discord.Client
	store    watermark.Store
	pipeline *Pipeline
	state    *health.State

	base   time.Duration
	offset time.Duration
}

func NewService(client *discord.Client, store watermark.Store, pipeline *Pipeline, state *health.State, base, offset time.Duration) *Service {
	if base <= 0 {
		base = time.Minute
	}
	return &Service{
		client:   client,
		store:    store,
		pipeline: pipeline,
		state:    state,
		base:     base,
		offset:   offset,
	}
}

func (s *Service) Run(ctx context.Context) {
	channelID := s.client.ChannelID()

	cursor, err := s.store.Load(ctx, channelID)
	if err != nil {
		logger.Error("cursor load failed, starting from zero: %v", err)
		cursor = 0
	}
	logger.Info("poll loop started: channel %s, cursor %d, every %s+%s", channelID, cursor, s.base, s.offset)
	s.state.SetCursor(cursor)
	s.state.SetReady(true)
	defer s.state.SetReady(false)

	for {
		wait := time.Until(nextTick(time.Now(), s.base, s.offset))
		select {
		case <-ctx.Done():
			logger.Info("poll loop stopped")
			return
		case <-time.After(wait):
		}

		msg, err := s.client.Latest(ctx)
		s.state.TouchPoll(time.Now())
		if err != nil {
			logger.Warn("fetch latest message: %v", err)
			continue
		}
		if msg == nil || msg.ID <= cursor {
			continue
		}

		s.pipeline.ProcessMessage(ctx, msg)

		cursor = msg.ID
		s.state.SetCursor(cursor)
		if err := s.store.Save(ctx, channelID, cursor); err != nil {
			logger.Error("cursor save failed at %d: %v", cursor, err)
		}
	}
}

// nextTick returns the earliest instant strictly after now of the form
// n*base+offset on the Unix timeline, so restarts land on the same schedule.
func nextTick(now time.Time, base, offset time.Duration) time.Time {
	baseNs := base.Nanoseconds()
	nowNs := now.UnixNano() - offset.Nanoseconds()
	n := nowNs/baseNs + 1
	if nowNs < 0 && nowNs%baseNs != 0 {
		n--
	}
	return time.Unix(0, n*baseNs+offset.Nanoseconds())
}
