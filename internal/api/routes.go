package api

import (
	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/tgienger/todo/internal/store"
)

func Register(e *echo.Echo, h *Handler) {
	e.GET("/tasks", h.ListTasks)
	e.POST("/tasks", h.CreateTask)
	e.GET("/tasks/:id", h.GetTask)
	e.PATCH("/tasks/:id", h.UpdateTask)
	e.POST("/tasks/:id/toggle", h.ToggleTask)
	e.DELETE("/tasks/:id", h.DeleteTask)

	e.GET("/tags", h.ListTags)
	e.POST("/tags", h.CreateTag)
	e.GET("/tags/suggest", h.SuggestTags)
	e.DELETE("/tags/:id", h.DeleteTag)

	e.GET("/stats", h.Stats)
	e.GET("/theme", h.GetTheme)
	e.PUT("/theme", h.SetTheme)
}

// New returns an echo instance serving s, logging each request to logger
func New(s *store.Store, logger *log.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				logger.Warn("request", "method", v.Method, "uri", v.URI, "status", v.Status, "err", v.Error)
				return nil
			}
			logger.Debug("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	Register(e, NewHandler(s, logger))
	return e
}
