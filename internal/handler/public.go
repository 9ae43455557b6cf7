package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ferrisk/place-directory/internal/repository"
)

// PublicHandler serves the unauthenticated directory endpoints: place
// listings (optionally filtered by tag) and the tag taxonomy. These
// routes sit behind the response cache and rate limiter.
type PublicHandler struct {
	Places *repository.PlaceRepo
	Tags   *repository.TagRepo
}

func NewPublicHandler(places *repository.PlaceRepo, tags *repository.TagRepo) *PublicHandler {
	if places == nil || tags == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Places: places, Tags: tags}
}

// ListPlaces returns all places sorted by name, each with its tag values.
// An optional ?tag= query parameter restricts the list to places carrying
// that tag value.
func (h *PublicHandler) ListPlaces(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	places, err := h.Places.List(ctx, c.QueryParam("tag"))
	if err != nil {
		return writeRepoErr(c, err)
	}
	return c.JSON(http.StatusOK, toPlaceResps(places))
}

// GetPlace returns a single place with its tags.
func (h *PublicHandler) GetPlace(c echo.Context) error {
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
	return c.JSON(http.StatusOK, toPlaceResp(p, false))
}

// publicTagResp exposes only the fields the public API promises.
type publicTagResp struct {
	Value     string `json:"value"`
	Display   string `json:"display"`
	SortOrder int    `json:"sort_order"`
}

// ListTags returns the flat tag list ordered by sort_order, then value.
func (h *PublicHandler) ListTags(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	tags, err := h.Tags.List(ctx)
	if err != nil {
		return writeRepoErr(c, err)
	}
	out := make([]publicTagResp, 0, len(tags))
	for _, t := range tags {
		out = append(out, publicTagResp{Value: t.Value, Display: t.Display, SortOrder: t.SortOrder})
	}
	return c.JSON(http.StatusOK, out)
}

type structuredTagResp struct {
	tagResp
	Children []tagResp `json:"children"`
}

type structuredTagsResp struct {
	Parents    []structuredTagResp `json:"parents"`
	Standalone []tagResp           `json:"standalone"`
}

// ListStructuredTags returns the one-level tag tree used for the
// directory's navigation: parents with their children plus standalone
// tags.
func (h *PublicHandler) ListStructuredTags(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	st, err := h.Tags.ListStructured(ctx)
	if err != nil {
		return writeRepoErr(c, err)
	}
	out := structuredTagsResp{
		Parents:    make([]structuredTagResp, 0, len(st.Parents)),
		Standalone: make([]tagResp, 0, len(st.Standalone)),
	}
	for _, p := range st.Parents {
		out.Parents = append(out.Parents, structuredTagResp{
			tagResp:  toTagResp(&p.Tag),
			Children: toTagResps(p.Children),
		})
	}
	for _, t := range st.Standalone {
		out.Standalone = append(out.Standalone, toTagResp(t))
	}
	return c.JSON(http.StatusOK, out)
}
