package filter

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/filters", h.Describe)
	api.POST("/filters/remove", h.Remove)
	api.POST("/filters/reset", h.Reset)
}

// TransitionRequest carries the location a client is currently on.
type TransitionRequest struct {
	Location string `json:"location"`
	Key      Key    `json:"key,omitempty"`
	Value    string `json:"value,omitempty"`
}

// TransitionResponse is the location the client should navigate to.
type TransitionResponse struct {
	Location string `json:"location"`
	Filters  State  `json:"filters"`
	Applied  []Chip `json:"applied"`
}

func newTransitionResponse(store *Store) TransitionResponse {
	st := store.State()
	return TransitionResponse{
		Location: store.Location(),
		Filters:  st,
		Applied:  AppliedFilters(st),
	}
}

// Describe decodes the request's own query string.
func (h *Handler) Describe(c echo.Context) error {
	store := NewStore(NewHistory(Location(DefaultPath, DecodeQuery(c.QueryString()))))
	return c.JSON(http.StatusOK, newTransitionResponse(store))
}

func (h *Handler) Remove(c echo.Context) error {
	var req TransitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "key is required")
	}
	store := NewStore(NewHistory(req.Location))
	store.RemoveFilter(req.Key, req.Value)
	return c.JSON(http.StatusOK, newTransitionResponse(store))
}

func (h *Handler) Reset(c echo.Context) error {
	var req TransitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	store := NewStore(NewHistory(req.Location))
	store.ResetFilters()
	return c.JSON(http.StatusOK, newTransitionResponse(store))
}
