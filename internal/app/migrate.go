package app

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/mahmoud-the-dev/Propmatch/internal/utils"
)

// statements are idempotent; run on every boot. The ON DELETE CASCADE on
// property_images is load-bearing: deleting a property must take its
// image-metadata rows with it.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS properties (
		id          uuid PRIMARY KEY,
		owner_id    uuid NOT NULL,
		title       text NOT NULL,
		address     text NOT NULL DEFAULT '',
		city        text NOT NULL DEFAULT '',
		state       text NOT NULL DEFAULT '',
		zip_code    text NOT NULL DEFAULT '',
		rating      int  NOT NULL CHECK (rating BETWEEN 1 AND 5),
		price       numeric(14,2) NOT NULL,
		bedrooms    int  NOT NULL DEFAULT 0,
		bathrooms   int  NOT NULL DEFAULT 0,
		description text NOT NULL DEFAULT '',
		created_at  timestamptz NOT NULL DEFAULT NOW(),
		updated_at  timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_owner ON properties (owner_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_city ON properties (city)`,
	`CREATE TABLE IF NOT EXISTS property_images (
		id          uuid PRIMARY KEY,
		property_id uuid NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		url         text NOT NULL,
		created_at  timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_property_images_property ON property_images (property_id, created_at)`,
}

func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	utils.Logger.Info("Database schema up to date")
	return nil
}
