package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ferrisk/place-directory/internal/repository"
)

// AdminPlaceHandler exposes the venue management endpoints. All routes
// require an authenticated admin.
type AdminPlaceHandler struct {
	Places *repository.PlaceRepo
}

func NewAdminPlaceHandler(places *repository.PlaceRepo) *AdminPlaceHandler {
	if places == nil {
		panic("nil repository passed to NewAdminPlaceHandler")
	}
	return &AdminPlaceHandler{Places: places}
}

// CreatePlace inserts a place with its tag associations. Responds 201
// with the full record, 400 when the name is missing.
func (h *AdminPlaceHandler) CreatePlace(c echo.Context) error {
	var in repository.PlaceInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Places.Create(ctx, in)
	if err != nil {
		return writeRepoErr(c, err)
	}
	publishChange(ctx, c, "place", "created", p.ID, p.Name)
	return c.JSON(http.StatusCreated, toPlaceResp(p, false))
}

// UpdatePlace applies a partial update. Fields absent from the body stay
// untouched; a body containing "tags" replaces the whole association set.
func (h *AdminPlaceHandler) UpdatePlace(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var p repository.PlacePatch
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	place, err := h.Places.Update(ctx, id, p)
	if err != nil {
		return writeRepoErr(c, err)
	}
	publishChange(ctx, c, "place", "updated", place.ID, place.Name)
	return c.JSON(http.StatusOK, toPlaceResp(place, false))
}

// DeletePlace removes a place. Responds 204 when a row was deleted, 404
// otherwise.
func (h *AdminPlaceHandler) DeletePlace(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	deleted, err := h.Places.Delete(ctx, id)
	if err != nil {
		return writeRepoErr(c, err)
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	publishChange(ctx, c, "place", "deleted", id, "")
	return c.NoContent(http.StatusNoContent)
}

// GetPlaceForEdit returns a place with specials/notes decoded back to
// plain newline-delimited text, the form the admin edit view works with.
func (h *AdminPlaceHandler) GetPlaceForEdit(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Places.GetByID(ctx, id)
	if err != nil {
		return writeRepoErr(c, err)
	}
	return c.JSON(http.StatusOK, toPlaceResp(p, true))
}
