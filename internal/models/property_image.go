package models

import (
	"time"

	"github.com/google/uuid"
)

// PropertyImage maps a property to one stored image's public URL.
// Rows are cascade-deleted with their property; while a row exists its
// URL must resolve to an object that actually exists in the object store.
type PropertyImage struct {
	ID         uuid.UUID `json:"id"`
	PropertyID uuid.UUID `json:"property_id"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"created_at"`
}
