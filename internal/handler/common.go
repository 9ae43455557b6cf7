package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ferrisk/place-directory/internal/queue"
	"github.com/ferrisk/place-directory/internal/repository"
	queue_publisher "github.com/ferrisk/place-directory/internal/service"
	"github.com/ferrisk/place-directory/internal/utils"
)

// dbTimeout bounds every repository call made from a handler.
const dbTimeout = 5 * time.Second

// getUserID extracts the user_id from echo.Context and converts it to
// uint64. JWT claims decode numbers as float64, so several shapes are
// accepted. Returns 0 when no principal is attached.
func getUserID(c echo.Context) uint64 {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t
	case int:
		return uint64(t)
	case int64:
		return uint64(t)
	case float64:
		return uint64(t)
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// writeRepoErr maps repository errors onto HTTP statuses: not-found to
// 404, conflicts to 409, validation to 400, everything else to 500.
func writeRepoErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrTagNotFound),
		errors.Is(err, repository.ErrPlaceNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// publishChange emits a directory.changed event after a successful admin
// mutation. Publishing is best-effort: failures are already logged by the
// publisher and must not fail the request.
func publishChange(ctx context.Context, c echo.Context, entity, action string, id uint64, name string) {
	_ = queue_publisher.PublishDirectoryChanged(ctx, queue.DirectoryChangedEvent{
		Entity:     entity,
		Action:     action,
		EntityID:   id,
		Name:       name,
		ActorID:    getUserID(c),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// ----- shared response DTOs -----

type tagResp struct {
	ID          uint64  `json:"id"`
	Value       string  `json:"value"`
	Display     string  `json:"display"`
	SortOrder   int     `json:"sort_order"`
	ParentTagID *uint64 `json:"parent_tag_id"`
	HasChildren bool    `json:"has_children"`
}

func toTagResp(t *repository.Tag) tagResp {
	return tagResp{
		ID:          t.ID,
		Value:       t.Value,
		Display:     t.Display,
		SortOrder:   t.SortOrder,
		ParentTagID: t.ParentTagID,
		HasChildren: t.HasChildren,
	}
}

func toTagResps(tags []*repository.Tag) []tagResp {
	out := make([]tagResp, 0, len(tags))
	for _, t := range tags {
		out = append(out, toTagResp(t))
	}
	return out
}

type placeResp struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	Phone      *string   `json:"phone"`
	URL        string    `json:"url"`
	Specials   string    `json:"specials"`
	Categories string    `json:"categories"`
	Notes      string    `json:"notes"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// toPlaceResp shapes a place for JSON. With decode=true the stored
// line-break markers in specials/notes are turned back into newlines,
// which is what edit forms expect.
func toPlaceResp(p *repository.Place, decode bool) placeResp {
	specials, notes := p.Specials, p.Notes
	if decode {
		specials = utils.DecodeLineBreaks(specials)
		notes = utils.DecodeLineBreaks(notes)
	}
	return placeResp{
		ID:         p.ID,
		Name:       p.Name,
		Address:    p.Address,
		Phone:      p.Phone,
		URL:        p.URL,
		Specials:   specials,
		Categories: p.Categories,
		Notes:      notes,
		Tags:       p.Tags,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func toPlaceResps(places []*repository.Place) []placeResp {
	out := make([]placeResp, 0, len(places))
	for _, p := range places {
		out = append(out, toPlaceResp(p, false))
	}
	return out
}
