package reader

import (
	"context"

	"telemetryd/internal/store"
)

// Seed upserts the fixed bootstrap locations and devices so ingestion has
// valid foreign keys before the first frame arrives. Upsert-by-id makes it
// idempotent.
func Seed(ctx context.Context, repo *store.Repo) error {
	locations := []struct {
		id          int
		name, descr string
	}{
		{1, "Location 1", "First Location"},
		{2, "Location 2", "Second Location"},
		{3, "Location 3", "Third Location"},
	}
	for _, l := range locations {
		if _, err := repo.UpsertLocation(ctx, l.id, l.name, l.descr); err != nil {
			return err
		}
	}

	devices := []struct {
		id          int
		name, descr string
		locationID  int
	}{
		{1, "Device 1", "First Device", 1},
		{2, "Device 2", "Second Device", 2},
		{3, "Device 3", "Third Device", 2},
		{4, "Device 4", "Fourth Device", 3},
	}
	for _, d := range devices {
		if _, err := repo.UpsertDevice(ctx, d.id, d.name, d.descr, d.locationID); err != nil {
			return err
		}
	}
	return nil
}
