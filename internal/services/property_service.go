package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mahmoud-the-dev/Propmatch/internal/cache"
	"github.com/mahmoud-the-dev/Propmatch/internal/dtos"
	"github.com/mahmoud-the-dev/Propmatch/internal/models"
	"github.com/mahmoud-the-dev/Propmatch/internal/repositories"
	"github.com/mahmoud-the-dev/Propmatch/internal/storage"
	"github.com/mahmoud-the-dev/Propmatch/internal/utils"
)

/*
PropertyService orchestrates the three stores a property mutation touches:
the property row, its image-metadata rows, and the uploaded files. The
ordering rules here exist to keep them consistent across partial failures;
see CreateProperty, UpdateProperty and DeleteProperty for the per-operation
contracts.
*/
type PropertyService struct {
	props  repositories.PropertyRepository
	images repositories.PropertyImageRepository
	store  storage.ObjectStore
	cache  cache.ListingCache
}

func NewPropertyService(
	props repositories.PropertyRepository,
	images repositories.PropertyImageRepository,
	store storage.ObjectStore,
	listingCache cache.ListingCache,
) *PropertyService {
	return &PropertyService{
		props:  props,
		images: images,
		store:  store,
		cache:  listingCache,
	}
}

// ----------------------------------------------------------------
// Create
// ----------------------------------------------------------------

/*
CreateProperty persists the property plus its images all-or-nothing: if any
upload or the image-row insert fails, the just-created property row and every
file uploaded so far are removed again and the failure propagates.

The row is inserted first because object keys are namespaced by property ID.
Uploads run strictly sequentially, so on failure everything before the
failing index is uploaded and everything from it onward is not.
*/
func (s *PropertyService) CreateProperty(
	ctx context.Context,
	ownerID uuid.UUID,
	req dtos.CreatePropertyRequest,
	files []dtos.ImageFile,
) (*dtos.PropertyResponse, error) {
	files = filterEmptyFiles(files)

	now := time.Now()
	p := &models.Property{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       req.Title,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		ZipCode:     req.ZipCode,
		Rating:      req.Rating,
		Price:       req.Price,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.props.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("insert property: %w", err)
	}

	var uploadedURLs []string
	for _, f := range files {
		key := storage.ObjectKey(p.ID, f.Filename)
		url, err := s.store.Upload(ctx, key, f.Data, f.ContentType)
		if err != nil {
			utils.Logger.WithError(err).Errorf("Create upload failed for %s, rolling back property %s", f.Filename, p.ID)
			s.rollbackCreate(ctx, p, uploadedURLs)
			return nil, fmt.Errorf("%s: %w", f.Filename, utils.ErrUploadFailed)
		}
		uploadedURLs = append(uploadedURLs, url)
	}

	if len(uploadedURLs) > 0 {
		if err := s.images.CreateMany(ctx, p.ID, uploadedURLs); err != nil {
			utils.Logger.WithError(err).Errorf("Create image-row insert failed, rolling back property %s", p.ID)
			s.rollbackCreate(ctx, p, uploadedURLs)
			return nil, fmt.Errorf("insert image rows: %w", err)
		}
	}

	s.cache.InvalidateOwner(ctx, ownerID)

	resp := dtos.NewPropertyResponse(p, uploadedURLs)
	return &resp, nil
}

/*
rollbackCreate is the compensating deletion for a failed create. The row
goes first so no property is ever observable without its images; the file
removals are best-effort, and anything they miss is reclaimed by the orphan
sweeper.
*/
func (s *PropertyService) rollbackCreate(ctx context.Context, p *models.Property, uploadedURLs []string) {
	if _, err := s.props.Delete(ctx, p.ID, p.OwnerID); err != nil {
		utils.Logger.WithError(err).Errorf("compensating property delete failed for %s", p.ID)
	}
	s.deleteFiles(ctx, uploadedURLs)
}

// ----------------------------------------------------------------
// Update
// ----------------------------------------------------------------

/*
UpdateProperty applies field changes and reconciles the image set. Unlike
create, a durable property row already exists, so image failures cannot
orphan it: the field update is committed first and survives regardless of
what the image phase does. Failed new-file uploads are skipped (and named in
the response), not fatal. Explicitly deleted images lose their metadata row
synchronously, and a failure there is surfaced to the caller; the underlying
files are removed fire-and-forget.
*/
func (s *PropertyService) UpdateProperty(
	ctx context.Context,
	ownerID, propertyID uuid.UUID,
	req dtos.UpdatePropertyRequest,
	newFiles []dtos.ImageFile,
) (*dtos.UpdatePropertyResponse, error) {
	existing, err := s.props.GetByIDForOwner(ctx, propertyID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load property: %w", err)
	}
	if existing == nil {
		return nil, utils.ErrPropertyNotFound
	}

	applyPropertyUpdate(existing, req)

	rows, err := s.props.Update(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("update property: %w", err)
	}
	if rows == 0 {
		// deleted between the read and the write; same shape as not owned
		return nil, utils.ErrPropertyNotFound
	}

	// Phase 2: explicit image removals. The metadata-row delete is
	// synchronous and its failure propagates: the caller asked for those
	// rows to go. The field update above stays committed either way. Files
	// are removed without waiting, since a leftover file with no row is
	// harmless and swept later.
	if len(req.DeletedImages) > 0 {
		if err := s.images.DeleteByURLs(ctx, propertyID, req.DeletedImages); err != nil {
			utils.Logger.WithError(err).Errorf("image-row delete failed for property %s", propertyID)
			return nil, fmt.Errorf("delete image rows: %w", err)
		}
		urls := append([]string(nil), req.DeletedImages...)
		go s.deleteFiles(context.Background(), urls)
	}

	// Phase 3: new uploads, each on its own. A failing file is skipped so a
	// bad image never blocks the rest of the update.
	var (
		uploadedURLs []string
		skipped      []string
	)
	for _, f := range filterEmptyFiles(newFiles) {
		key := storage.ObjectKey(propertyID, f.Filename)
		url, upErr := s.store.Upload(ctx, key, f.Data, f.ContentType)
		if upErr != nil {
			utils.Logger.WithError(upErr).Warnf("Update upload failed for %s on property %s, skipping", f.Filename, propertyID)
			skipped = append(skipped, f.Filename)
			continue
		}
		uploadedURLs = append(uploadedURLs, url)
	}

	if len(uploadedURLs) > 0 {
		if err := s.images.CreateMany(ctx, propertyID, uploadedURLs); err != nil {
			// Files without rows are invisible to readers; drop them again
			// and report every new file as skipped.
			utils.Logger.WithError(err).Errorf("image-row insert failed for property %s", propertyID)
			s.deleteFiles(ctx, uploadedURLs)
			for _, f := range filterEmptyFiles(newFiles) {
				if !slices.Contains(skipped, f.Filename) {
					skipped = append(skipped, f.Filename)
				}
			}
		}
	}

	s.cache.InvalidateOwner(ctx, ownerID)

	urls, err := s.images.ListURLsByPropertyID(ctx, propertyID)
	if err != nil {
		utils.Logger.WithError(err).Errorf("listing images after update of %s", propertyID)
	}

	return &dtos.UpdatePropertyResponse{
		Updated:       dtos.NewPropertyResponse(existing, urls),
		SkippedImages: skipped,
	}, nil
}

// ----------------------------------------------------------------
// Delete
// ----------------------------------------------------------------

/*
DeleteProperty removes an owned property and everything hanging off it. The
image URLs are captured before the row delete because the cascade would make
them unrecoverable afterwards. File deletions are best-effort and never
reverse the committed row delete.
*/
func (s *PropertyService) DeleteProperty(ctx context.Context, ownerID, propertyID uuid.UUID) error {
	urls, err := s.images.ListURLsByPropertyID(ctx, propertyID)
	if err != nil {
		return fmt.Errorf("list property images: %w", err)
	}

	rows, err := s.props.Delete(ctx, propertyID, ownerID)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	if rows == 0 {
		return utils.ErrPropertyNotFound
	}

	s.deleteFiles(ctx, urls)
	s.cache.InvalidateOwner(ctx, ownerID)
	return nil
}

// ----------------------------------------------------------------
// Reads
// ----------------------------------------------------------------

func (s *PropertyService) GetProperty(ctx context.Context, id uuid.UUID) (*dtos.PropertyResponse, error) {
	p, err := s.props.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, utils.ErrPropertyNotFound
	}
	urls, err := s.images.ListURLsByPropertyID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dtos.NewPropertyResponse(p, urls)
	return &resp, nil
}

// ListMyProperties serves the caller's listings, cache first.
func (s *PropertyService) ListMyProperties(ctx context.Context, ownerID uuid.UUID) (*dtos.ListPropertiesResponse, error) {
	if payload, ok := s.cache.GetOwnerListings(ctx, ownerID); ok {
		var cached dtos.ListPropertiesResponse
		if err := json.Unmarshal(payload, &cached); err == nil {
			return &cached, nil
		}
		utils.Logger.Warnf("discarding undecodable listing cache entry for owner %s", ownerID)
	}

	props, err := s.props.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	resp, err := s.buildListResponse(ctx, props)
	if err != nil {
		return nil, err
	}

	if payload, mErr := json.Marshal(resp); mErr == nil {
		s.cache.SetOwnerListings(ctx, ownerID, payload)
	}
	return resp, nil
}

func (s *PropertyService) SearchProperties(ctx context.Context, f models.PropertyFilter) (*dtos.ListPropertiesResponse, error) {
	props, err := s.props.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.buildListResponse(ctx, props)
}

func (s *PropertyService) buildListResponse(ctx context.Context, props []*models.Property) (*dtos.ListPropertiesResponse, error) {
	out := make([]dtos.PropertyResponse, 0, len(props))
	for _, p := range props {
		urls, err := s.images.ListURLsByPropertyID(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, dtos.NewPropertyResponse(p, urls))
	}
	return &dtos.ListPropertiesResponse{Properties: out}, nil
}

// ----------------------------------------------------------------
// helpers
// ----------------------------------------------------------------

// deleteFiles issues a best-effort object deletion per URL. Failures are
// logged and never surfaced; the sweeper reclaims anything missed.
func (s *PropertyService) deleteFiles(ctx context.Context, urls []string) {
	for _, u := range urls {
		key, err := storage.KeyFromURL(u)
		if err != nil {
			utils.Logger.WithError(err).Warnf("cannot derive object key from %s", u)
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			utils.Logger.WithError(err).Warnf("best-effort file delete failed for %s", key)
		}
	}
}

// filterEmptyFiles drops zero-byte files; they never count as images.
func filterEmptyFiles(files []dtos.ImageFile) []dtos.ImageFile {
	out := files[:0:0]
	for _, f := range files {
		if len(f.Data) == 0 {
			utils.Logger.Warnf("ignoring empty image file %q", f.Filename)
			continue
		}
		out = append(out, f)
	}
	return out
}

func applyPropertyUpdate(p *models.Property, req dtos.UpdatePropertyRequest) {
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.City != nil {
		p.City = *req.City
	}
	if req.State != nil {
		p.State = *req.State
	}
	if req.ZipCode != nil {
		p.ZipCode = *req.ZipCode
	}
	if req.Rating != nil {
		p.Rating = *req.Rating
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Bedrooms != nil {
		p.Bedrooms = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		p.Bathrooms = *req.Bathrooms
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
}
