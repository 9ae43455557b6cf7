package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ferrisk/place-directory/internal/repository"
)

// AdminTagHandler exposes the taxonomy management endpoints. All routes
// require an authenticated admin.
type AdminTagHandler struct {
	Tags *repository.TagRepo
}

func NewAdminTagHandler(tags *repository.TagRepo) *AdminTagHandler {
	if tags == nil {
		panic("nil repository passed to NewAdminTagHandler")
	}
	return &AdminTagHandler{Tags: tags}
}

type createTagReq struct {
	Value       string  `json:"value"`
	Display     string  `json:"display"`
	SortOrder   int     `json:"sort_order"`
	ParentTagID *uint64 `json:"parent_tag_id"`
}

// CreateTag adds a tag to the taxonomy. Responds 201 with the full
// record, 409 on duplicate value, 400 on a malformed slug.
func (h *AdminTagHandler) CreateTag(c echo.Context) error {
	var req createTagReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	t, err := h.Tags.Create(ctx, req.Value, req.Display, req.SortOrder, req.ParentTagID)
	if err != nil {
		return writeRepoErr(c, err)
	}
	publishChange(ctx, c, "tag", "created", t.ID, t.Value)
	return c.JSON(http.StatusCreated, toTagResp(t))
}

// UpdateTag applies a partial update. Only fields present in the body are
// touched; changing the parent recomputes has_children on both sides.
func (h *AdminTagHandler) UpdateTag(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var p repository.TagPatch
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	t, err := h.Tags.Update(ctx, id, p)
	if err != nil {
		return writeRepoErr(c, err)
	}
	publishChange(ctx, c, "tag", "updated", t.ID, t.Value)
	return c.JSON(http.StatusOK, toTagResp(t))
}

// DeleteTag removes a tag, its children and all place associations.
// Responds 204 when a row was deleted, 404 otherwise.
func (h *AdminTagHandler) DeleteTag(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	deleted, err := h.Tags.Delete(ctx, id)
	if err != nil {
		return writeRepoErr(c, err)
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	publishChange(ctx, c, "tag", "deleted", id, "")
	return c.NoContent(http.StatusNoContent)
}

// PotentialParents lists the tags selectable as parent for the tag in the
// path: top-level tags excluding the tag itself and its children.
func (h *AdminTagHandler) PotentialParents(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	tags, err := h.Tags.PotentialParents(ctx, &id)
	if err != nil {
		return writeRepoErr(c, err)
	}
	return c.JSON(http.StatusOK, toTagResps(tags))
}

type bulkSaveReq struct {
	Tags []repository.TagInput `json:"tags"`
}

// BulkSaveTags reconciles the whole tag set against the posted list in
// one transaction: absent values are deleted, matches updated, new values
// inserted. Parent links are not managed here.
func (h *AdminTagHandler) BulkSaveTags(c echo.Context) error {
	var req bulkSaveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Tags.BulkSave(ctx, req.Tags); err != nil {
		return writeRepoErr(c, err)
	}
	publishChange(ctx, c, "tag", "bulk_saved", 0, "")

	tags, err := h.Tags.List(ctx)
	if err != nil {
		return writeRepoErr(c, err)
	}
	return c.JSON(http.StatusOK, toTagResps(tags))
}

// ListTags returns the full flat tag list including ids and parent links,
// for the admin taxonomy editor.
func (h *AdminTagHandler) ListTags(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	tags, err := h.Tags.List(ctx)
	if err != nil {
		return writeRepoErr(c, err)
	}
	return c.JSON(http.StatusOK, toTagResps(tags))
}
