package routes

const (
	// Health
	Health = "/health"

	// Public endpoints
	PropertiesSearch = "/api/v1/properties"
	PropertyByID     = "/api/v1/properties/{id}"

	// Agent endpoints (JWT-protected)
	PropertiesBase = "/api/v1/properties"
	PropertiesMy   = "/api/v1/properties/my"
)
