package doctor

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/docfinder/docfinder/internal/domain/filter"
)

type Handler struct {
	dir *Directory
}

func NewHandler(dir *Directory) *Handler {
	return &Handler{dir: dir}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/specialties", h.ListSpecialties)
	api.GET("/doctors/suggestions", h.Suggestions)
	api.GET("/doctors/:id", h.GetDoctor)
	api.POST("/doctors/refresh", h.Refresh)
}

// ListResponse is the filtered directory view.
type ListResponse struct {
	Doctors     []Doctor      `json:"doctors"`
	Total       int           `json:"total"`
	Filters     filter.State  `json:"filters"`
	Location    string        `json:"location"`
	Applied     []filter.Chip `json:"applied"`
	Loading     bool          `json:"loading"`
	FetchFailed bool          `json:"fetch_failed"`
}

// ListDoctors decodes the filter state from the query string (search, type,
// specialties, sort) and returns the matching doctors.
func (h *Handler) ListDoctors(c echo.Context) error {
	f := filter.DecodeQuery(c.QueryString())
	snap := h.dir.Snapshot()
	doctors := h.dir.apply(snap, f)
	return c.JSON(http.StatusOK, ListResponse{
		Doctors:     doctors,
		Total:       len(doctors),
		Filters:     f,
		Location:    filter.Location(filter.DefaultPath, f),
		Applied:     filter.AppliedFilters(f),
		Loading:     snap.Loading,
		FetchFailed: snap.FetchFailed,
	})
}

func (h *Handler) ListSpecialties(c echo.Context) error {
	return c.JSON(http.StatusOK, Specialties(h.dir.Snapshot().Doctors))
}

func (h *Handler) Suggestions(c echo.Context) error {
	return c.JSON(http.StatusOK, Suggest(h.dir.Snapshot().Doctors, c.QueryParam("q")))
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.dir.Get(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	return c.JSON(http.StatusOK, d)
}

// Refresh re-fetches the doctor list. A failed fetch is reported through the
// fetch_failed flag, not as an HTTP error. The fetch updates state shared by
// every client, so it outlives a caller that disconnects; the source's own
// timeout bounds it.
func (h *Handler) Refresh(c echo.Context) error {
	_ = h.dir.Load(context.WithoutCancel(c.Request().Context()))
	snap := h.dir.Snapshot()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"total":        len(snap.Doctors),
		"fetch_failed": snap.FetchFailed,
	})
}
