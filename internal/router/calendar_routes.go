package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/law-office-scheduling/internal/handler"
	"github.com/iliyamo/law-office-scheduling/internal/middleware"
	"github.com/iliyamo/law-office-scheduling/internal/model"
)

// RegisterCalendar wires the calendar surface.  Every route requires a
// valid access token; both roles may operate the shared calendar.  The
// response cache is applied only to the window read, which is exactly
// the pool the composer's advisory check consumes, so a slightly stale
// HIT is acceptable by design of the protocol.  The rate limiter guards
// the whole group.
func RegisterCalendar(e *echo.Echo, o *handler.OccurrenceHandler, s *handler.SessionHandler, cl *handler.ClientHandler, jwtSecret string, cacheMW, limitMW echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin, model.RoleSecretary))
	if limitMW != nil {
		g.Use(limitMW)
	}

	// Calendar window read, cached.
	if cacheMW != nil {
		g.GET("/calendars/:id/occurrences", o.ListWindow, cacheMW)
	} else {
		g.GET("/calendars/:id/occurrences", o.ListWindow)
	}

	// Advisory check: pure, lock-free, never writes.
	g.POST("/calendars/:id/occurrences/check", o.Check)

	// Mutations, all routed through the coordinator.
	g.POST("/calendars/:id/occurrences", o.Create)
	g.PUT("/occurrences/:id", o.Update)
	g.DELETE("/occurrences/:id", o.Delete)

	// Court sessions attached to an occurrence.
	g.POST("/occurrences/:id/sessions", s.Create)
	g.GET("/occurrences/:id/sessions", s.List)
	g.DELETE("/sessions/:id", s.Delete)

	// Client directory, read-only.
	g.GET("/clients", cl.List)
	g.GET("/clients/:id", cl.Get)
}
