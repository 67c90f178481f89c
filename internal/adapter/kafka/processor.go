package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/northpack/cartapi/internal/core/port"
	"github.com/northpack/cartapi/pkg/schema"
)

var _ port.CartActivityProcessor = (*CartActivityProcessor)(nil)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
		return
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// A cartEventCodec used for serde [schema.CartEventV1]
type cartEventCodec struct {
	serde Serde
}

func newCartEventCodec(s Serde) cartEventCodec {
	return cartEventCodec{s}
}

func (c cartEventCodec) Encode(v any) ([]byte, error) {
	const op = "cartEventCodec.Encode"
	if _, ok := v.(schema.CartEventV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c cartEventCodec) Decode(data []byte) (any, error) {
	const op = "cartEventCodec.Decode"
	var s schema.CartEventV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, err
}

// An activityValue is the per-cart aggregate kept in the group table.
type activityValue struct {
	Events         int    `json:"events"`
	LastAction     string `json:"last_action"`
	LastSeenMillis int64  `json:"last_seen_millis"`
}

// An activityValueCodec used for serde [activityValue]
type activityValueCodec struct{}

func (activityValueCodec) Encode(v any) ([]byte, error) {
	const op = "activityValueCodec.Encode"
	av, ok := v.(activityValue)
	if !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return json.Marshal(av)
}

func (activityValueCodec) Decode(data []byte) (any, error) {
	const op = "activityValueCodec.Decode"
	var av activityValue
	if err := json.Unmarshal(data, &av); err != nil {
		return nil, opErr(err, op)
	}
	return av, nil
}

// A CartActivityProcessor folds cart events from the stream topic
// into a per-cart group table for the back office.
type CartActivityProcessor struct {
	opPrefix string
	proc     processor
}

func NewCartActivityProc(
	seedBrokers []string,
	inputStream string,
	groupTable string,
	cartEventSerde Serde,
) (*CartActivityProcessor, error) {
	const op = "NewCartActivityProc"

	var p CartActivityProcessor
	p.opPrefix = "CartActivityProcessor"

	gg := goka.DefineGroup(goka.Group(groupTable),
		goka.Input(
			goka.Stream(inputStream),
			newCartEventCodec(cartEventSerde),
			p.processFn,
		),
		goka.Persist(activityValueCodec{}),
	)

	gp, err := goka.NewProcessor(seedBrokers, gg, withNonlogProcOpt())
	if err != nil {
		return nil, opErr(err, op)
	}

	p.proc = processor{
		opPrefix: p.opPrefix,
		gp:       gp,
	}

	return &p, nil
}

func (p *CartActivityProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *CartActivityProcessor) Close() {
	p.proc.close()
}

func (p *CartActivityProcessor) processFn(ctx goka.Context, msg any) {
	const op = "processFn"
	log := slog.With("op", makeOp(p.opPrefix, op))

	event, _ := msg.(schema.CartEventV1)

	var v activityValue
	if cur, ok := ctx.Value().(activityValue); ok {
		v = cur
	}
	v.Events++
	v.LastAction = event.Action
	v.LastSeenMillis = event.AtMillis
	ctx.SetValue(v)

	log.Info(
		"updated cart activity",
		"cartID", event.CartID,
		"events", v.Events,
	)
}
