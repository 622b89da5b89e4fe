package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/mahmoud-the-dev/Propmatch/internal/models"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type PropertyRepository interface {
	Create(ctx context.Context, p *models.Property) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Property, error)
	ListByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.Property, error)
	Search(ctx context.Context, f models.PropertyFilter) ([]*models.Property, error)

	// Update and Delete filter by both id and owner_id; the returned count
	// is zero when the property does not exist under that owner.
	Update(ctx context.Context, p *models.Property) (int64, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) (int64, error)
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type propertyRepo struct{ db DB }

func NewPropertyRepository(db DB) PropertyRepository { return &propertyRepo{db: db} }

func (r *propertyRepo) Create(ctx context.Context, p *models.Property) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO properties (
            id, owner_id, title, address, city, state, zip_code,
            rating, price, bedrooms, bathrooms, description,
            created_at, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, NOW(), NOW())
    `,
		p.ID,
		p.OwnerID,
		p.Title,
		p.Address,
		p.City,
		p.State,
		p.ZipCode,
		p.Rating,
		p.Price,
		p.Bedrooms,
		p.Bathrooms,
		p.Description,
	)
	return err
}

func (r *propertyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	row := r.db.QueryRow(ctx, baseSelectProperty()+" WHERE id=$1", id)
	return scanProperty(row)
}

func (r *propertyRepo) GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Property, error) {
	row := r.db.QueryRow(ctx, baseSelectProperty()+" WHERE id=$1 AND owner_id=$2", id, ownerID)
	return scanProperty(row)
}

func (r *propertyRepo) ListByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.Property, error) {
	rows, err := r.db.Query(ctx, baseSelectProperty()+" WHERE owner_id=$1 ORDER BY created_at DESC", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectProperties(rows)
}

func (r *propertyRepo) Search(ctx context.Context, f models.PropertyFilter) ([]*models.Property, error) {
	var (
		conds []string
		args  []interface{}
	)

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.City != "" {
		add("city ILIKE $%d", f.City)
	}
	if f.PriceFrom > 0 {
		add("price >= $%d", f.PriceFrom)
	}
	if f.PriceTo > 0 {
		add("price <= $%d", f.PriceTo)
	}
	if f.Bedrooms > 0 {
		add("bedrooms = $%d", f.Bedrooms)
	}
	if f.Bathrooms > 0 {
		add("bathrooms = $%d", f.Bathrooms)
	}
	if f.MinRating > 0 {
		add("rating >= $%d", f.MinRating)
	}

	sql := baseSelectProperty()
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	sql += " ORDER BY created_at DESC"

	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.Size
	if size < 1 {
		size = models.DefaultPageSize
	}
	if size > models.MaxPageSize {
		size = models.MaxPageSize
	}
	args = append(args, size)
	sql += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, (page-1)*size)
	sql += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectProperties(rows)
}

func (r *propertyRepo) Update(ctx context.Context, p *models.Property) (int64, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE properties SET
            title=$1, address=$2, city=$3, state=$4, zip_code=$5,
            rating=$6, price=$7, bedrooms=$8, bathrooms=$9, description=$10,
            updated_at=NOW()
        WHERE id=$11 AND owner_id=$12
    `,
		p.Title, p.Address, p.City, p.State, p.ZipCode,
		p.Rating, p.Price, p.Bedrooms, p.Bathrooms, p.Description,
		p.ID, p.OwnerID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *propertyRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM properties WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func collectProperties(rows pgx.Rows) ([]*models.Property, error) {
	var out []*models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func baseSelectProperty() string {
	return `
        SELECT
            id, owner_id, title,
            address, city, state, zip_code,
            rating, price, bedrooms, bathrooms, description,
            created_at, updated_at
        FROM properties
    `
}

func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Title,
		&p.Address,
		&p.City,
		&p.State,
		&p.ZipCode,
		&p.Rating,
		&p.Price,
		&p.Bedrooms,
		&p.Bathrooms,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
