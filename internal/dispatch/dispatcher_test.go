package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_bridge/internal/models"
	"signal_bridge/internal/symbols"
)

// errSample in a script position makes that call fail.
const errSample = -1.0

// fakePrices serves a scripted sequence of spot/deriv samples; once the
// script is exhausted the last sample repeats.
type fakePrices struct {
	mu    sync.Mutex
	spot  []float64
	deriv []float64
}

func (f *fakePrices) next(q *[]float64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(*q) == 0 {
		return 0, errors.New("no sample scripted")
	}
	v := (*q)[0]
	if len(*q) > 1 {
		*q = (*q)[1:]
	}
	if v == errSample {
		return 0, errors.New("transient feed error")
	}
	return v, nil
}

func (f *fakePrices) LastSpot(ctx context.Context, instrument string) (float64, error) {
	return f.next(&f.spot)
}

func (f *fakePrices) LastDerivatives(ctx context.Context, instrument string) (float64, error) {
	return f.next(&f.deriv)
}

type fakeGateway struct {
	mu     sync.Mutex
	orders []models.OrderInstruction
	err    error
}

func (g *fakeGateway) PlaceOrder(ctx context.Context, order models.OrderInstruction) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.orders = append(g.orders, order)
	return nil
}

func (g *fakeGateway) placed() []models.OrderInstruction {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.OrderInstruction(nil), g.orders...)
}

func testConfig() Config {
	return Config{
		TolerancePct:      0.05,
		MaxWait:           200 * time.Millisecond,
		PollInterval:      10 * time.Millisecond,
		TouchOrderType:    models.OrderTypeLimit,
		BasisMode:         BasisOff,
		Exchange:          "BIFU",
		TakeProfitSplit:   [2]int{20, 80},
		ExpirationMinutes: 15,
	}
}

func sizedLong(entry float64) models.SizedSignal {
	return models.SizedSignal{
		Signal: models.Signal{
			Side: models.SideLong, Instrument: "SOL", QuoteAsset: "USDT",
			Entry: entry, TakeProfit1: entry * 1.05, TakeProfit2: entry * 1.10, StopLoss: entry * 0.95,
		},
		StopLossPct:   5,
		Leverage:      16,
		TradingSymbol: "BIFU_USDT_SOL",
	}
}

func TestDispatchImmediateWhenAtEntry(t *testing.T) {
	prices := &fakePrices{deriv: []float64{100.0}}
	gw := &fakeGateway{}
	d := New(testConfig(), prices, gw, symbols.Default("BIFU"))

	dec := d.Dispatch(context.Background(), sizedLong(100))
	assert.Equal(t, models.OutcomeSent, dec.Outcome)
	assert.Equal(t, models.OrderTypeLimit, dec.OrderType)

	orders := gw.placed()
	require.Len(t, orders, 1)
	assert.Equal(t, "BIFU_USDT_SOL", orders[0].Symbol)
	assert.Equal(t, 100.0, orders[0].SignalPrice)
	assert.Equal(t, 16, orders[0].Leverage)
	require.Len(t, orders[0].TakeProfit, 2)
	assert.Equal(t, 20, orders[0].TakeProfit[0].PositionPercentage)
	assert.Equal(t, 80, orders[0].TakeProfit[1].PositionPercentage)
	assert.Equal(t, models.ProtectionBreakEven, orders[0].StopLoss.ProtectionType)
	assert.Equal(t, 15, orders[0].EntryExpiration.Time)
}

func TestDispatchWaitsThenTouches(t *testing.T) {
	// long entry=100 tol=0.05%: 99.80 is below the band, 99.96 inside it
	prices := &fakePrices{deriv: []float64{99.80, 99.80, 99.96}}
	gw := &fakeGateway{}
	d := New(testConfig(), prices, gw, symbols.Default("BIFU"))

	dec := d.Dispatch(context.Background(), sizedLong(100))
	assert.Equal(t, models.OutcomeSent, dec.Outcome)
	require.Len(t, gw.placed(), 1)
}

func TestDispatchTimesOut(t *testing.T) {
	prices := &fakePrices{deriv: []float64{99.0}}
	gw := &fakeGateway{}
	cfg := testConfig()
	cfg.MaxWait = 50 * time.Millisecond
	d := New(cfg, prices, gw, symbols.Default("BIFU"))

	dec := d.Dispatch(context.Background(), sizedLong(100))
	assert.Equal(t, models.OutcomeTimedOut, dec.Outcome)
	assert.NotEmpty(t, dec.Reason)
	assert.Empty(t, gw.placed(), "timed-out waits must not dispatch")
}

func TestDispatchShortTouchDirection(t *testing.T) {
	// short entry=100: 100.30 is above the band and must wait, 100.04 touches
	prices := &fakePrices{deriv: []float64{100.30, 100.04}}
	gw := &fakeGateway{}
	d := New(testConfig(), prices, gw, symbols.Default("BIFU"))

	sig := sizedLong(100)
	sig.Side = models.SideShort
	sig.TakeProfit1, sig.TakeProfit2, sig.StopLoss = 95, 90, 105

	dec := d.Dispatch(context.Background(), sig)
	assert.Equal(t, models.OutcomeSent, dec.Outcome)
}

func TestDispatchFailsOpenOnInitialPriceError(t *testing.T) {
	prices := &fakePrices{deriv: []float64{errSample}}
	gw := &fakeGateway{}
	d := New(testConfig(), prices, gw, symbols.Default("BIFU"))

	dec := d.Dispatch(context.Background(), sizedLong(100))
	assert.Equal(t, models.OutcomeSent, dec.Outcome)
	assert.Equal(t, models.OrderTypeLimit, dec.OrderType)

	orders := gw.placed()
	require.Len(t, orders, 1)
	assert.Equal(t, 100.0, orders[0].SignalPrice, "fail-open dispatches at the stated entry")
}

func TestDispatchWaitSkipsBadSamples(t *testing.T) {
	// initial evaluation sees 99.0 and enters the wait; the first poll hits
	// a transient error and must be skipped, the next sample touches
	prices := &fakePrices{deriv: []float64{99.0, errSample, 100.0}}
	gw := &fakeGateway{}
	d := New(testConfig(), prices, gw, symbols.Default("BIFU"))

	dec := d.Dispatch(context.Background(), sizedLong(100))
	assert.Equal(t, models.OutcomeSent, dec.Outcome)
}

func TestDispatchGatewayRejection(t *testing.T) {
	prices := &fakePrices{deriv: []float64{100.0}}
	gw := &fakeGateway{err: errors.New("401 unauthorized")}
	d := New(testConfig(), prices, gw, symbols.Default("BIFU"))

	dec := d.Dispatch(context.Background(), sizedLong(100))
	assert.Equal(t, models.OutcomeSkipped, dec.Outcome)
	assert.Contains(t, dec.Reason, "gateway rejected")
}

func TestDispatchContextCancelAbortsWait(t *testing.T) {
	prices := &fakePrices{deriv: []float64{99.0}}
	gw := &fakeGateway{}
	cfg := testConfig()
	cfg.MaxWait = 10 * time.Second
	d := New(cfg, prices, gw, symbols.Default("BIFU"))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	dec := d.Dispatch(ctx, sizedLong(100))
	assert.Equal(t, models.OutcomeSkipped, dec.Outcome)
	assert.Empty(t, gw.placed())
}

func TestDispatchMarketOrderOnTouch(t *testing.T) {
	prices := &fakePrices{deriv: []float64{99.0, 100.0}}
	gw := &fakeGateway{}
	cfg := testConfig()
	cfg.TouchOrderType = models.OrderTypeMarket
	d := New(cfg, prices, gw, symbols.Default("BIFU"))

	dec := d.Dispatch(context.Background(), sizedLong(100))
	assert.Equal(t, models.OutcomeSent, dec.Outcome)
	assert.Equal(t, models.OrderTypeMarket, dec.OrderType)

	orders := gw.placed()
	require.Len(t, orders, 1)
	assert.Zero(t, orders[0].SignalPrice, "market orders omit the signal price")
}

func TestDispatchSpotReferenceMode(t *testing.T) {
	// spot mode reads the spot feed for the touch check, deriv stays unused
	prices := &fakePrices{spot: []float64{100.0}}
	gw := &fakeGateway{}
	cfg := testConfig()
	cfg.BasisMode = BasisSpot
	d := New(cfg, prices, gw, symbols.Default("BIFU"))

	dec := d.Dispatch(context.Background(), sizedLong(100))
	assert.Equal(t, models.OutcomeSent, dec.Outcome)
}

func TestDispatchBasisAdjustRescalesLevels(t *testing.T) {
	// deriv trades 0.3% above spot; clamp cap 0.5% leaves the ratio intact
	prices := &fakePrices{spot: []float64{100.0, 100.0}, deriv: []float64{100.3}}
	gw := &fakeGateway{}
	cfg := testConfig()
	cfg.BasisMode = BasisAdjust
	cfg.BasisClampPct = 0.5
	d := New(cfg, prices, gw, symbols.Default("BIFU"))

	dec := d.Dispatch(context.Background(), sizedLong(100))
	require.Equal(t, models.OutcomeSent, dec.Outcome)

	orders := gw.placed()
	require.Len(t, orders, 1)
	assert.InDelta(t, 100.3, orders[0].SignalPrice, 0.01)
	assert.InDelta(t, 105.32, orders[0].TakeProfit[0].Price, 0.01)
	assert.InDelta(t, 95.285, orders[0].StopLoss.StopPrice, 0.02)
}
