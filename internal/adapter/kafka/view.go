package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/lovoo/goka"
	"github.com/northpack/cartapi/internal/core/domain"
	"github.com/northpack/cartapi/internal/core/port"
)

var _ port.CartActivityProvider = (*CartActivityView)(nil)

// A CartActivityView reads the group table the
// [CartActivityProcessor] maintains.
type CartActivityView struct {
	gv *goka.View
}

func NewCartActivityView(
	seedBrokers []string, groupTable string,
) (CartActivityView, error) {
	const op = "NewCartActivityView"

	gv, err := goka.NewView(
		seedBrokers,
		goka.GroupTable(goka.Group(groupTable)),
		activityValueCodec{},
		withNonlogViewOpt(),
	)
	if err != nil {
		return CartActivityView{}, opErr(err, op)
	}

	return CartActivityView{gv}, nil
}

func (v CartActivityView) Run(ctx context.Context) {
	const op = "CartActivityView.Run"
	log := slog.With("op", op)

	err := v.gv.Run(ctx)
	if err != nil {
		log.Error("unexpected fail on run", "err", err)
	}
}

func (v CartActivityView) CartActivity(
	ctx context.Context, cartID string,
) (domain.CartActivity, error) {
	const op = "CartActivityView.CartActivity"

	if err := ctx.Err(); err != nil {
		return domain.CartActivity{}, opErr(err, op)
	}

	val, err := v.gv.Get(cartID)
	if err != nil {
		return domain.CartActivity{}, opErr(err, op)
	}
	if val == nil {
		return domain.CartActivity{}, opErr(domain.ErrNoActivity, op)
	}

	av, ok := val.(activityValue)
	if !ok {
		return domain.CartActivity{}, opErr(ErrInvalidValueType, op)
	}

	return domain.CartActivity{
		CartID:     cartID,
		Events:     av.Events,
		LastAction: domain.CartAction(av.LastAction),
		LastSeen:   time.UnixMilli(av.LastSeenMillis),
	}, nil
}
