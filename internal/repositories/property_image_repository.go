package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/mahmoud-the-dev/Propmatch/internal/models"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type PropertyImageRepository interface {
	// CreateMany batch-inserts one row per URL for the given property.
	CreateMany(ctx context.Context, propertyID uuid.UUID, urls []string) error

	ListByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]*models.PropertyImage, error)
	ListURLsByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]string, error)
	ListAllURLs(ctx context.Context) ([]string, error)

	DeleteByURLs(ctx context.Context, propertyID uuid.UUID, urls []string) error
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type propertyImageRepo struct{ db DB }

func NewPropertyImageRepository(db DB) PropertyImageRepository {
	return &propertyImageRepo{db: db}
}

func (r *propertyImageRepo) CreateMany(ctx context.Context, propertyID uuid.UUID, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	ids := make([]string, len(urls))
	for i := range urls {
		ids[i] = uuid.New().String()
	}
	// unnest over parallel arrays zips them row-wise
	_, err := r.db.Exec(ctx, `
        INSERT INTO property_images (id, property_id, url, created_at)
        SELECT unnest($1::uuid[]), $2, unnest($3::text[]), NOW()
    `, ids, propertyID, urls)
	return err
}

func (r *propertyImageRepo) ListByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]*models.PropertyImage, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, property_id, url, created_at
        FROM property_images
        WHERE property_id=$1
        ORDER BY created_at
    `, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.PropertyImage
	for rows.Next() {
		img, err := scanPropertyImage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

func (r *propertyImageRepo) ListURLsByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, `
        SELECT url FROM property_images WHERE property_id=$1 ORDER BY created_at
    `, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectURLs(rows)
}

func (r *propertyImageRepo) ListAllURLs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT url FROM property_images`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectURLs(rows)
}

func (r *propertyImageRepo) DeleteByURLs(ctx context.Context, propertyID uuid.UUID, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
        DELETE FROM property_images WHERE property_id=$1 AND url = ANY($2::text[])
    `, propertyID, urls)
	return err
}

func collectURLs(rows pgx.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanPropertyImage(row pgx.Row) (*models.PropertyImage, error) {
	var img models.PropertyImage
	err := row.Scan(
		&img.ID,
		&img.PropertyID,
		&img.URL,
		&img.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &img, nil
}
