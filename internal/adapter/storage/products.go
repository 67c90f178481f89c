package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/northpack/cartapi/internal/core/domain"
	"github.com/northpack/cartapi/internal/core/port"
)

var _ port.ProductsStorage = (*ProductsRepository)(nil)

type pricingTier struct {
	CaseRange    string `json:"case"`
	PricePerUnit string `json:"pricePerUnit"`
}

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

func (r ProductsRepository) StoreProducts(
	ctx context.Context, vs []domain.Product,
) (storeErr error) {
	const op = "ProductsRepository.StoreProducts"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := r.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}

	defer func() {
		if storeErr == nil {
			if err := tx.Commit(); err != nil {
				storeErr = fmt.Errorf("%s: failed to commit %w", op, err)
			}
			return
		}

		err := tx.Rollback()
		if err != nil {
			log.Error("failed to rollback tx", "err", err)
		}
	}()

	query := `
		INSERT INTO products (
			product_id, name, image_url,
			price, bulk_price, pcs_per_case, pricing_tiers
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (product_id) DO UPDATE SET
			name = EXCLUDED.name,
			image_url = EXCLUDED.image_url,
			price = EXCLUDED.price,
			bulk_price = EXCLUDED.bulk_price,
			pcs_per_case = EXCLUDED.pcs_per_case,
			pricing_tiers = EXCLUDED.pricing_tiers;
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%s: failed to prepare stmt: %w", op, err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			log.Error("failed to close prepared stmt", "err", err)
		}
	}()

	for _, v := range vs {
		tiersB, _ := json.Marshal(toTierRecords(v.Pricing))
		_, err := stmt.ExecContext(ctx,
			v.ProductID, v.Name, v.ImageURL,
			v.Price, v.BulkPrice, v.PcsPerCase, string(tiersB),
		)
		if err != nil {
			return fmt.Errorf("%s: failed to exec: %w", op, err)
		}
	}

	return nil
}

func (r ProductsRepository) ReadProduct(
	ctx context.Context, productID string,
) (domain.Product, error) {
	const op = "ProductsRepository.ReadProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT
			product_id, name, image_url,
			price, bulk_price, pcs_per_case, pricing_tiers
		FROM products
		WHERE product_id = $1;`

	var v domain.Product
	var tiersS string
	err := r.sqldb.QueryRowContext(ctx, query, productID).Scan(
		&v.ProductID, &v.Name, &v.ImageURL,
		&v.Price, &v.BulkPrice, &v.PcsPerCase, &tiersS,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf(
				"%s: %w", op, domain.ErrProductNotFound,
			)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	var tiers []pricingTier
	err = json.Unmarshal([]byte(tiersS), &tiers)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	v.Pricing = toDomainTiers(tiers)

	return v, nil
}

func toTierRecords(ts []domain.PricingTier) []pricingTier {
	if len(ts) == 0 {
		return nil
	}
	rs := make([]pricingTier, len(ts))
	for i, t := range ts {
		rs[i] = pricingTier{
			CaseRange:    t.CaseRange,
			PricePerUnit: t.PricePerUnit,
		}
	}
	return rs
}

func toDomainTiers(rs []pricingTier) []domain.PricingTier {
	if len(rs) == 0 {
		return nil
	}
	ts := make([]domain.PricingTier, len(rs))
	for i, r := range rs {
		ts[i] = domain.PricingTier{
			CaseRange:    r.CaseRange,
			PricePerUnit: r.PricePerUnit,
		}
	}
	return ts
}
