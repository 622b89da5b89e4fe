package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/mahmoud-the-dev/Propmatch/internal/models"
)

/*
ImageFile is one uploaded file as handed from the controller to the
service layer. Data is the full file content; zero-byte files are
filtered out before any store call.
*/
type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type CreatePropertyRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Address     string  `json:"address" validate:"required,max=300"`
	City        string  `json:"city" validate:"max=100"`
	State       string  `json:"state" validate:"max=100"`
	ZipCode     string  `json:"zip_code" validate:"max=20"`
	Rating      int     `json:"rating" validate:"required,min=1,max=5"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Bedrooms    int     `json:"bedrooms" validate:"min=0,max=50"`
	Bathrooms   int     `json:"bathrooms" validate:"min=0,max=50"`
	Description string  `json:"description" validate:"max=5000"`
}

/*
UpdatePropertyRequest uses pointers so the controller can distinguish
"field absent from the form" from a zero value; absent fields keep their
current value. DeletedImages lists image URLs explicitly marked for removal.
*/
type UpdatePropertyRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,max=200"`
	Address     *string  `json:"address,omitempty" validate:"omitempty,max=300"`
	City        *string  `json:"city,omitempty" validate:"omitempty,max=100"`
	State       *string  `json:"state,omitempty" validate:"omitempty,max=100"`
	ZipCode     *string  `json:"zip_code,omitempty" validate:"omitempty,max=20"`
	Rating      *int     `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	Bedrooms    *int     `json:"bedrooms,omitempty" validate:"omitempty,min=0,max=50"`
	Bathrooms   *int     `json:"bathrooms,omitempty" validate:"omitempty,min=0,max=50"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=5000"`

	DeletedImages []string `json:"deleted_images,omitempty" validate:"omitempty,dive,url"`
}

type PropertyResponse struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	ZipCode     string    `json:"zip_code"`
	Rating      int       `json:"rating"`
	Price       float64   `json:"price"`
	Bedrooms    int       `json:"bedrooms"`
	Bathrooms   int       `json:"bathrooms"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// helper
func NewPropertyResponse(p *models.Property, imageURLs []string) PropertyResponse {
	if imageURLs == nil {
		imageURLs = []string{}
	}
	return PropertyResponse{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Address:     p.Address,
		City:        p.City,
		State:       p.State,
		ZipCode:     p.ZipCode,
		Rating:      p.Rating,
		Price:       p.Price,
		Bedrooms:    p.Bedrooms,
		Bathrooms:   p.Bathrooms,
		Description: p.Description,
		Images:      imageURLs,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

/*
UpdatePropertyResponse reports SkippedImages: filenames whose upload
failed and were left out of the reconciled image set. The field update
itself has already been persisted when any file is skipped.
*/
type UpdatePropertyResponse struct {
	Updated       PropertyResponse `json:"updated"`
	SkippedImages []string         `json:"skipped_images,omitempty"`
}

type ListPropertiesResponse struct {
	Properties []PropertyResponse `json:"properties"`
}
