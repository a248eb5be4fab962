// Package api serves the task store as a JSON API over echo.
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/store"
	"github.com/tgienger/todo/internal/view"
)

type Handler struct {
	store  *store.Store
	logger *log.Logger
}

func NewHandler(s *store.Store, logger *log.Logger) *Handler {
	return &Handler{
		store:  s,
		logger: logger,
	}
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id must be an integer")
	}
	return id, nil
}

// confirmed approves a delete when the request carries confirm=true
func confirmed(c echo.Context) store.Confirm {
	ok, _ := strconv.ParseBool(c.QueryParam("confirm"))
	return func(string) bool { return ok }
}

func (h *Handler) viewOptions(c echo.Context) (view.Options, error) {
	var opts view.Options
	var err error

	if opts.Filter, err = view.ParseFilter(c.QueryParam("filter")); err != nil {
		return opts, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if opts.Sort, err = view.ParseSortKey(c.QueryParam("sort")); err != nil {
		return opts, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if cat := c.QueryParam("category"); cat != "" && cat != "all" {
		if opts.Category, err = models.ParseCategory(cat); err != nil {
			return opts, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	opts.Query = c.QueryParam("q")

	switch strings.ToLower(c.QueryParam("order")) {
	case "":
		opts.Ascending = view.DefaultAscending(h.store.Variant(), opts.Sort)
	case "asc":
		opts.Ascending = true
	case "desc":
		opts.Ascending = false
	default:
		return opts, echo.NewHTTPError(http.StatusBadRequest, "order must be asc or desc")
	}
	return opts, nil
}

func (h *Handler) ListTasks(c echo.Context) error {
	opts, err := h.viewOptions(c)
	if err != nil {
		return err
	}

	var tags []models.Tag
	if h.store.Variant() == models.VariantTags {
		if tags, err = h.store.Tags(); err != nil {
			return httpError(err)
		}
	}
	tasks := view.Apply(h.store.Tasks(), tags, opts, h.store.Now())

	return c.JSON(http.StatusOK, echo.Map{
		"count": len(tasks),
		"tasks": tasks,
	})
}

func (h *Handler) GetTask(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	task, err := h.store.Task(id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) CreateTask(c echo.Context) error {
	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	task, err := h.store.CreateTask(c.Request().Context(), req.toNewTask())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, task)
}

func (h *Handler) UpdateTask(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req patchTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	task, err := h.store.UpdateTask(c.Request().Context(), id, req.toPatch())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) ToggleTask(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	task, err := h.store.ToggleComplete(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.store.DeleteTask(c.Request().Context(), id, confirmed(c)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListTags(c echo.Context) error {
	tags, err := h.store.Tags()
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count": len(tags),
		"tags":  tags,
		"usage": h.store.TagUsage(),
	})
}

func (h *Handler) CreateTag(c echo.Context) error {
	var req createTagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	tag, err := h.store.CreateTag(c.Request().Context(), req.Name, req.Color)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, tag)
}

func (h *Handler) DeleteTag(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.store.DeleteTag(c.Request().Context(), id, confirmed(c)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SuggestTags(c echo.Context) error {
	exclude, err := parseIDs(c.QueryParam("exclude"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "exclude must be a comma separated id list")
	}
	s, err := h.store.Suggest(c.QueryParam("q"), exclude)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) Stats(c echo.Context) error {
	stats := view.Compute(h.store.Tasks(), h.store.Variant(), h.store.Now())
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetTheme(c echo.Context) error {
	dark, err := h.store.DarkTheme(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"dark": dark})
}

func (h *Handler) SetTheme(c echo.Context) error {
	var req themeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := h.store.SetDarkTheme(c.Request().Context(), req.Dark); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"dark": req.Dark})
}
