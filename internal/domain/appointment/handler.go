package appointment

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/docfinder/docfinder/internal/domain/doctor"
)

// DoctorLookup resolves a doctor id against the fetched directory.
type DoctorLookup interface {
	Get(id int) (doctor.Doctor, error)
}

type Handler struct {
	ledger  *Ledger
	doctors DoctorLookup
}

func NewHandler(ledger *Ledger, doctors DoctorLookup) *Handler {
	return &Handler{ledger: ledger, doctors: doctors}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/appointments", h.ListAppointments)
	api.POST("/appointments", h.BookAppointment)
	api.DELETE("/appointments/:index", h.CancelAppointment)
}

// BookRequest is the body of POST /appointments.
type BookRequest struct {
	DoctorID int    `json:"doctor_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

func (h *Handler) ListAppointments(c echo.Context) error {
	return c.JSON(http.StatusOK, h.ledger.List(c.Request().Context()))
}

func (h *Handler) BookAppointment(c echo.Context) error {
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Time) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date and time are required")
	}

	d, err := h.doctors.Get(req.DoctorID)
	if errors.Is(err, doctor.ErrDoctorNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	entry, err := h.ledger.Book(c.Request().Context(), d, req.Date, req.Time)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save appointment")
	}
	return c.JSON(http.StatusCreated, entry)
}

// CancelAppointment removes the entry at the given position. Positions past
// the end are accepted and change nothing.
func (h *Handler) CancelAppointment(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid index")
	}
	if err := h.ledger.Cancel(c.Request().Context(), index); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to cancel appointment")
	}
	return c.NoContent(http.StatusNoContent)
}
