package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/northpack/cartapi/internal/core/domain"
	"github.com/northpack/cartapi/internal/core/port"
	"github.com/northpack/cartapi/pkg/retry"
)

var _ port.CartEventsSaver = (*CartEventsRepository)(nil)

// CartEventsRepository archives consumed cart events for back-office
// reporting. Appends are retried a few times since the consumer
// commits offsets only after a successful save.
type CartEventsRepository struct {
	sqldb sqldb
}

func NewCartEventsRepository(sqldb sqldb) CartEventsRepository {
	return CartEventsRepository{sqldb}
}

func (r CartEventsRepository) SaveEvents(
	ctx context.Context, evts []domain.CartEvent,
) error {
	const op = "CartEventsRepository.SaveEvents"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	retryCfg := retry.RetryConfig{
		MaxAttempts: 3,
		Backoff:     retry.LinearBackoff(100 * time.Millisecond),
	}

	err := retry.Do(ctx, retryCfg, func() error {
		return r.saveEvents(ctx, evts)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r CartEventsRepository) saveEvents(
	ctx context.Context, evts []domain.CartEvent,
) (saveErr error) {
	const op = "CartEventsRepository.saveEvents"
	log := slog.With("op", op)

	tx, err := r.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	defer func() {
		if saveErr == nil {
			if err := tx.Commit(); err != nil {
				saveErr = fmt.Errorf("failed to commit: %w", err)
			}
			return
		}

		if err := tx.Rollback(); err != nil {
			log.Error("failed to rollback tx", "err", err)
		}
	}()

	query := `
		INSERT INTO cart_events (cart_id, action, product_id, quantity, at)
		VALUES ($1, $2, $3, $4, $5);
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare stmt: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			log.Error("failed to close prepared stmt", "err", err)
		}
	}()

	for _, evt := range evts {
		_, err := stmt.ExecContext(ctx,
			evt.CartID, string(evt.Action),
			evt.ProductID, evt.Quantity, evt.At,
		)
		if err != nil {
			return fmt.Errorf("failed to exec: %w", err)
		}
	}

	return nil
}
