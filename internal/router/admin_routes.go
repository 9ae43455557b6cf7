package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ferrisk/place-directory/internal/handler"
	"github.com/ferrisk/place-directory/internal/middleware"
)

// RegisterAdmin registers the management endpoints under /v1/admin. All
// routes require a valid JWT with the ADMIN role.
func RegisterAdmin(e *echo.Echo, places *handler.AdminPlaceHandler, tags *handler.AdminTagHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// ---- Places ----
	g.POST("/places", places.CreatePlace)
	g.PATCH("/places/:id", places.UpdatePlace)
	g.PUT("/places/:id", places.UpdatePlace) // alias for clients that use PUT
	g.DELETE("/places/:id", places.DeletePlace)
	g.GET("/places/:id/edit", places.GetPlaceForEdit) // line breaks decoded

	// ---- Tags ----
	g.GET("/tags", tags.ListTags)
	g.POST("/tags", tags.CreateTag)
	g.PUT("/tags", tags.BulkSaveTags) // full-set reconcile by value
	g.PATCH("/tags/:id", tags.UpdateTag)
	g.DELETE("/tags/:id", tags.DeleteTag)
	g.GET("/tags/:id/parents", tags.PotentialParents)
}
