package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"

	"signal_bridge/internal/dispatch"
	"signal_bridge/internal/helper"
	"signal_bridge/internal/legfilter"
	"signal_bridge/internal/models"
	"signal_bridge/internal/notify"
	"signal_bridge/internal/risk"
	"signal_bridge/internal/signal"
	"signal_bridge/internal/symbols"
	"signal_bridge/pkg/logger"
)

const debugBlockPreview = 120

// History supplies close series for the leg filter.
type History interface {
	Candles(ctx context.Context, instrument, bar string, limit int) ([]models.Candle, error)
}

// Dispatcher resolves one sized signal into a terminal decision.
type Dispatcher interface {
	Dispatch(ctx context.Context, sig models.SizedSignal) models.DispatchDecision
}

// LegFilterConfig carries the structural-filter knobs the pipeline needs
// beyond the classifier itself.
type LegFilterConfig struct {
	Enabled      bool
	LookbackBars int
	Bar          string
	FailMode     legfilter.FailMode
}

// Pipeline turns one channel message into zero or more gateway orders:
// extract blocks, parse, size, optionally check market structure, then hand
// each surviving signal to the dispatcher.
type Pipeline struct {
	extractor  *signal.Extractor
	parser     *signal.Parser
	sizer      risk.Sizer
	table      *symbols.Table
	classifier legfilter.Classifier
	legCfg     LegFilterConfig
	history    History
	dispatcher Dispatcher
	notifier   notify.Notifier
}

func NewPipeline(
	extractor *signal.Extractor,
	parser *signal.Parser,
	sizer risk.Sizer,
	table *symbols.Table,
	classifier legfilter.Classifier,
	legCfg LegFilterConfig,
	history History,
	dispatcher Dispatcher,
	notifier notify.Notifier,
) *Pipeline {
	return &Pipeline{
		extractor:  extractor,
		parser:     parser,
		sizer:      sizer,
		table:      table,
		classifier: classifier,
		legCfg:     legCfg,
		history:    history,
		dispatcher: dispatcher,
		notifier:   notifier,
	}
}

// ProcessMessage resolves every signal block of one message to a terminal
// decision. Parsing, sizing and filtering run in block order; dispatch waits
// run concurrently so one slow touch-wait cannot starve the other blocks.
// The returned slice is indexed by block.
func (p *Pipeline) ProcessMessage(ctx context.Context, msg *models.ChannelMessage) []models.DispatchDecision {
	span, ctx := opentracing.StartSpanFromContext(ctx, "process_message")
	span.SetTag("message_id", msg.ID)
	defer span.Finish()

	blocks := p.extractor.Blocks(msg.SignalText())
	span.SetTag("blocks", len(blocks))
	if len(blocks) == 0 {
		return nil
	}

	decisions := make([]models.DispatchDecision, len(blocks))
	var wg sync.WaitGroup

	for i, block := range blocks {
		blockID := uuid.NewString()[:8]
		logger.Info("message %d block %s: %s",
			msg.ID, blockID, helper.Truncate(helper.CollapseWhitespace(block.Text), debugBlockPreview))

		sized, decision := p.resolve(ctx, blockID, block)
		if decision != nil {
			decisions[i] = *decision
			continue
		}

		wg.Add(1)
		go func(i int, sized models.SizedSignal, blockID string) {
			defer wg.Done()
			decisions[i] = p.dispatcher.Dispatch(ctx, sized)
			logger.Info("block %s: %s %s -> %s %s",
				blockID, sized.Side, sized.TradingSymbol, decisions[i].Outcome, decisions[i].Reason)
		}(i, *sized, blockID)
	}

	wg.Wait()
	p.summarize(msg.ID, decisions)
	return decisions
}

// resolve runs the synchronous stages for one block. A non-nil decision
// means the block terminated before dispatch.
func (p *Pipeline) resolve(ctx context.Context, blockID string, block signal.RawBlock) (*models.SizedSignal, *models.DispatchDecision) {
	sig, err := p.parser.Parse(block)
	if err != nil {
		logger.Warn("block %s: parse: %v", blockID, err)
		d := models.Skipped(fmt.Sprintf("parse: %v", err))
		return nil, &d
	}

	sig = p.table.RoundLevels(sig)

	stopLossPct, leverage, err := p.sizer.Size(sig)
	if err != nil {
		logger.Warn("block %s: size: %v", blockID, err)
		d := models.Skipped(fmt.Sprintf("size: %v", err))
		return nil, &d
	}

	sized := models.SizedSignal{
		Signal:        sig,
		StopLossPct:   stopLossPct,
		Leverage:      leverage,
		TradingSymbol: p.table.TradingSymbol(sig.QuoteAsset, sig.Instrument),
	}

	if d := p.checkStructure(ctx, blockID, sized); d != nil {
		return nil, d
	}
	return &sized, nil
}

// checkStructure applies the zig-zag leg filter. It returns a skip decision
// when the filter rejects the signal, nil when dispatch may proceed.
func (p *Pipeline) checkStructure(ctx context.Context, blockID string, sized models.SizedSignal) *models.DispatchDecision {
	if !p.legCfg.Enabled {
		return nil
	}

	bars, err := p.history.Candles(ctx, sized.Instrument, p.legCfg.Bar, p.legCfg.LookbackBars)
	if err != nil {
		if p.legCfg.FailMode == legfilter.FailClosed {
			logger.Warn("block %s: history unavailable, failing closed: %v", blockID, err)
			d := models.Skipped(fmt.Sprintf("leg filter: history unavailable: %v", err))
			return &d
		}
		logger.Warn("block %s: history unavailable, failing open: %v", blockID, err)
		return nil
	}

	trend, leg := p.classifier.Classify(models.Closes(bars))
	if ok, reason := p.classifier.Decide(sized.Side, trend, leg); !ok {
		logger.Info("block %s: leg filter rejected: %s", blockID, reason)
		d := models.Skipped("leg filter: " + reason)
		return &d
	}
	return nil
}

func (p *Pipeline) summarize(msgID int64, decisions []models.DispatchDecision) {
	for i, d := range decisions {
		switch d.Outcome {
		case models.OutcomeSent:
			p.notifier.Sendf("✅ message %d block %d: %s %s %s lev=%dx entry=%v",
				msgID, i+1, d.Levels.Side, d.Levels.TradingSymbol, d.OrderType, d.Levels.Leverage, d.Levels.Entry)
		case models.OutcomeTimedOut:
			p.notifier.Sendf("⏳ message %d block %d: %s", msgID, i+1, d.Reason)
		default:
			p.notifier.Sendf("🚫 message %d block %d: %s", msgID, i+1, d.Reason)
		}
	}
}

var _ Dispatcher = (*dispatch.Dispatcher)(nil)
