package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/northpack/cartapi/internal/core/domain"
	"github.com/northpack/cartapi/internal/core/port"
)

var _ port.CartStorage = (*FileCartStorage)(nil)

type cartLineRecord struct {
	ProductID  string        `json:"product_id"`
	Name       string        `json:"name"`
	ImageURL   string        `json:"image_url"`
	UnitPrice  float64       `json:"unit_price"`
	PcsPerCase int           `json:"pcs_per_case"`
	Quantity   int           `json:"quantity"`
	Pricing    []pricingTier `json:"pricing"`
}

// FileCartStorage keeps one JSON document per cart under dir. Writes
// go through a temp file and rename so a crashed write never leaves a
// truncated entry behind.
type FileCartStorage struct {
	dir string
}

func NewFileCartStorage(dir string) (FileCartStorage, error) {
	const op = "NewFileCartStorage"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return FileCartStorage{}, fmt.Errorf("%s: %w", op, err)
	}
	return FileCartStorage{dir}, nil
}

func (s FileCartStorage) Load(
	ctx context.Context, cartID string,
) (domain.CartLines, error) {
	const op = "FileCartStorage.Load"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	data, err := os.ReadFile(s.entryPath(cartID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.CartLines{}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var rs []cartLineRecord
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("%s: corrupt entry: %w", op, err)
	}

	ls := make(domain.CartLines, len(rs))
	for i, r := range rs {
		ls[i] = domain.CartLine{
			ProductID:  r.ProductID,
			Name:       r.Name,
			ImageURL:   r.ImageURL,
			UnitPrice:  r.UnitPrice,
			PcsPerCase: r.PcsPerCase,
			Quantity:   r.Quantity,
			Pricing:    toDomainTiers(r.Pricing),
		}
	}
	return ls, nil
}

func (s FileCartStorage) Save(
	ctx context.Context, cartID string, ls domain.CartLines,
) error {
	const op = "FileCartStorage.Save"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rs := make([]cartLineRecord, len(ls))
	for i, l := range ls {
		rs[i] = cartLineRecord{
			ProductID:  l.ProductID,
			Name:       l.Name,
			ImageURL:   l.ImageURL,
			UnitPrice:  l.UnitPrice,
			PcsPerCase: l.PcsPerCase,
			Quantity:   l.Quantity,
			Pricing:    toTierRecords(l.Pricing),
		}
	}

	data, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	entry := s.entryPath(cartID)
	tmp := entry + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Rename(tmp, entry); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s FileCartStorage) entryPath(cartID string) string {
	return filepath.Join(s.dir, sanitizeID(cartID)+".json")
}

// sanitizeID keeps cart IDs filesystem-safe, cart IDs are
// caller-supplied strings.
func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, id)
}
