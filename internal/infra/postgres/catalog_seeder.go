package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"globetrotter/internal/domain"
)

// SeedDestinations upserts destinations by ID and returns how many rows were written.
func SeedDestinations(ctx context.Context, db *bun.DB, destinations []domain.Destination) (int, error) {
	if len(destinations) == 0 {
		return 0, nil
	}
	rows := make([]destinationRow, 0, len(destinations))
	for _, d := range destinations {
		rows = append(rows, destinationRow{ID: d.ID, Data: d})
	}
	res, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed destinations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
