package controllers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mahmoud-the-dev/Propmatch/internal/dtos"
	"github.com/mahmoud-the-dev/Propmatch/internal/middleware"
	"github.com/mahmoud-the-dev/Propmatch/internal/models"
	"github.com/mahmoud-the-dev/Propmatch/internal/services"
	"github.com/mahmoud-the-dev/Propmatch/internal/utils"
)

const maxMultipartMemory = 32 << 20 // 32 MiB

type PropertiesController struct {
	propertyService *services.PropertyService
}

func NewPropertiesController(ps *services.PropertyService) *PropertiesController {
	return &PropertiesController{propertyService: ps}
}

var propertyValidate = validator.New()

// ----------------------------------------------------------------
// POST /api/v1/properties  (multipart: fields + images[])
// ----------------------------------------------------------------
func (c *PropertiesController) CreatePropertyHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := ownerIDFromContext(r)
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil, nil)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid multipart form", nil, err)
		return
	}
	form := r.MultipartForm

	req := dtos.CreatePropertyRequest{
		Title:       r.FormValue("title"),
		Address:     r.FormValue("address"),
		City:        r.FormValue("city"),
		State:       r.FormValue("state"),
		ZipCode:     r.FormValue("zip_code"),
		Description: r.FormValue("description"),
	}
	req.Rating, _ = strconv.Atoi(r.FormValue("rating"))
	req.Price, _ = strconv.ParseFloat(r.FormValue("price"), 64)
	req.Bedrooms, _ = strconv.Atoi(r.FormValue("bedrooms"))
	req.Bathrooms, _ = strconv.Atoi(r.FormValue("bathrooms"))

	if err := propertyValidate.StructCtx(ctx, req); err != nil {
		respondValidationError(w, err)
		return
	}

	files, err := readImageFiles(form, "images")
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Failed to read image file", nil, err)
		return
	}

	created, svcErr := c.propertyService.CreateProperty(ctx, ownerID, req, files)
	if svcErr != nil {
		if errors.Is(svcErr, utils.ErrUploadFailed) {
			utils.RespondErrorWithCode(w, http.StatusBadGateway, utils.ErrCodeUploadFailed, "Image upload failed; property was not created", nil, svcErr)
			return
		}
		utils.Logger.WithError(svcErr).Error("Create property error")
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not create property", nil, svcErr)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, created)
}

// ----------------------------------------------------------------
// PUT /api/v1/properties/{id}  (multipart: fields + images[] + deleted_images[])
// ----------------------------------------------------------------
func (c *PropertiesController) UpdatePropertyHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := ownerIDFromContext(r)
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil, nil)
		return
	}

	propertyID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid property id", nil, err)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid multipart form", nil, err)
		return
	}
	form := r.MultipartForm

	var req dtos.UpdatePropertyRequest
	req.Title = formString(form, "title")
	req.Address = formString(form, "address")
	req.City = formString(form, "city")
	req.State = formString(form, "state")
	req.ZipCode = formString(form, "zip_code")
	req.Description = formString(form, "description")
	if req.Rating, err = formInt(form, "rating"); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid rating", nil, err)
		return
	}
	if req.Price, err = formFloat(form, "price"); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid price", nil, err)
		return
	}
	if req.Bedrooms, err = formInt(form, "bedrooms"); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid bedrooms", nil, err)
		return
	}
	if req.Bathrooms, err = formInt(form, "bathrooms"); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid bathrooms", nil, err)
		return
	}
	req.DeletedImages = form.Value["deleted_images"]

	if err := propertyValidate.StructCtx(ctx, req); err != nil {
		respondValidationError(w, err)
		return
	}

	files, err := readImageFiles(form, "images")
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Failed to read image file", nil, err)
		return
	}

	updated, svcErr := c.propertyService.UpdateProperty(ctx, ownerID, propertyID, req, files)
	if svcErr != nil {
		if errors.Is(svcErr, utils.ErrPropertyNotFound) {
			utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Property not found", nil, nil)
			return
		}
		utils.Logger.WithError(svcErr).Error("Update property error")
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not update property", nil, svcErr)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// ----------------------------------------------------------------
// DELETE /api/v1/properties/{id}
// ----------------------------------------------------------------
func (c *PropertiesController) DeletePropertyHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := ownerIDFromContext(r)
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil, nil)
		return
	}

	propertyID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid property id", nil, err)
		return
	}

	if svcErr := c.propertyService.DeleteProperty(ctx, ownerID, propertyID); svcErr != nil {
		if errors.Is(svcErr, utils.ErrPropertyNotFound) {
			utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Property not found", nil, nil)
			return
		}
		utils.Logger.WithError(svcErr).Error("Delete property error")
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not delete property", nil, svcErr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----------------------------------------------------------------
// GET /api/v1/properties/{id}
// ----------------------------------------------------------------
func (c *PropertiesController) GetPropertyHandler(w http.ResponseWriter, r *http.Request) {
	propertyID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid property id", nil, err)
		return
	}

	prop, svcErr := c.propertyService.GetProperty(r.Context(), propertyID)
	if svcErr != nil {
		if errors.Is(svcErr, utils.ErrPropertyNotFound) {
			utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Property not found", nil, nil)
			return
		}
		utils.Logger.WithError(svcErr).Error("Get property error")
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not fetch property", nil, svcErr)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, prop)
}

// ----------------------------------------------------------------
// GET /api/v1/properties/my
// ----------------------------------------------------------------
func (c *PropertiesController) ListMyPropertiesHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerIDFromContext(r)
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil, nil)
		return
	}

	resp, svcErr := c.propertyService.ListMyProperties(r.Context(), ownerID)
	if svcErr != nil {
		utils.Logger.WithError(svcErr).Error("List my properties error")
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not list your properties", nil, svcErr)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// ----------------------------------------------------------------
// GET /api/v1/properties  (public search)
// ----------------------------------------------------------------
func (c *PropertiesController) SearchPropertiesHandler(w http.ResponseWriter, r *http.Request) {
	f := parsePropertyFilter(r)

	resp, svcErr := c.propertyService.SearchProperties(r.Context(), f)
	if svcErr != nil {
		utils.Logger.WithError(svcErr).Error("Search properties error")
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not search properties", nil, svcErr)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// ----------------------------------------------------------------
// helpers
// ----------------------------------------------------------------

func ownerIDFromContext(r *http.Request) (uuid.UUID, bool) {
	v := r.Context().Value(middleware.ContextKeyUserID)
	if v == nil {
		return uuid.Nil, false
	}
	sub, ok := v.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func respondValidationError(w http.ResponseWriter, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation failed", validationErrors.Error(), nil)
		return
	}
	utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid request data", nil, err)
}

func readImageFiles(form *multipart.Form, field string) ([]dtos.ImageFile, error) {
	headers := form.File[field]
	out := make([]dtos.ImageFile, 0, len(headers))
	for _, fh := range headers {
		file, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, dtos.ImageFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return out, nil
}

func formString(form *multipart.Form, field string) *string {
	if v, ok := form.Value[field]; ok && len(v) > 0 {
		return &v[0]
	}
	return nil
}

func formInt(form *multipart.Form, field string) (*int, error) {
	v, ok := form.Value[field]
	if !ok || len(v) == 0 {
		return nil, nil
	}
	n, err := strconv.Atoi(v[0])
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func formFloat(form *multipart.Form, field string) (*float64, error) {
	v, ok := form.Value[field]
	if !ok || len(v) == 0 {
		return nil, nil
	}
	n, err := strconv.ParseFloat(v[0], 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func parsePropertyFilter(r *http.Request) models.PropertyFilter {
	q := r.URL.Query()
	var f models.PropertyFilter
	f.City = q.Get("city")
	f.PriceFrom, _ = strconv.ParseFloat(q.Get("price_from"), 64)
	f.PriceTo, _ = strconv.ParseFloat(q.Get("price_to"), 64)
	f.Bedrooms, _ = strconv.Atoi(q.Get("bedrooms"))
	f.Bathrooms, _ = strconv.Atoi(q.Get("bathrooms"))
	f.MinRating, _ = strconv.Atoi(q.Get("min_rating"))
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.Size, _ = strconv.Atoi(q.Get("size"))
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Size < 1 {
		f.Size = models.DefaultPageSize
	}
	if f.Size > models.MaxPageSize {
		f.Size = models.MaxPageSize
	}
	return f
}
