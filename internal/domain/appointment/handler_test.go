package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/docfinder/docfinder/internal/domain/doctor"
)

type stubLookup map[int]doctor.Doctor

func (s stubLookup) Get(id int) (doctor.Doctor, error) {
	d, ok := s[id]
	if !ok {
		return doctor.Doctor{}, doctor.ErrDoctorNotFound
	}
	return d, nil
}

func newTestHandler() (*Handler, *Ledger, *echo.Echo) {
	l := newTestLedger(NewMemorySlot())
	h := NewHandler(l, stubLookup{4: testDoctor(4, "Dr. Four")})
	return h, l, echo.New()
}

func postJSON(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_BookAppointment(t *testing.T) {
	h, l, e := newTestHandler()
	c, rec := postJSON(e, `{"doctor_id":4,"date":"2025-07-01","time":"14:00"}`)

	if err := h.BookAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var entry Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry.Doctor.Name != "Dr. Four" || entry.Date != "2025-07-01" {
		t.Errorf("entry = %+v", entry)
	}
	if n := len(l.List(context.Background())); n != 1 {
		t.Errorf("ledger has %d entries, want 1", n)
	}
}

func TestHandler_BookAppointment_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"unknown doctor", `{"doctor_id":9,"date":"d","time":"t"}`, http.StatusNotFound},
		{"missing date", `{"doctor_id":4,"time":"t"}`, http.StatusBadRequest},
		{"missing time", `{"doctor_id":4,"date":"d","time":"  "}`, http.StatusBadRequest},
		{"bad json", `{"doctor_id":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, l, e := newTestHandler()
			c, _ := postJSON(e, tt.body)

			err := h.BookAppointment(c)
			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != tt.code {
				t.Fatalf("expected %d HTTPError, got %v", tt.code, err)
			}
			if n := len(l.List(context.Background())); n != 0 {
				t.Errorf("ledger has %d entries after rejected booking", n)
			}
		})
	}
}

func TestHandler_ListAppointments(t *testing.T) {
	h, l, e := newTestHandler()
	l.Book(context.Background(), testDoctor(4, "Dr. Four"), "d", "t")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	rec := httptest.NewRecorder()
	if err := h.ListAppointments(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d entries, want 1", len(got))
	}
}

func TestHandler_ListAppointments_Empty(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	rec := httptest.NewRecorder()
	if err := h.ListAppointments(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}

func TestHandler_CancelAppointment(t *testing.T) {
	for _, tc := range []struct {
		index     string
		code      int
		remaining int
	}{
		{"0", http.StatusNoContent, 0},
		{"5", http.StatusNoContent, 1},
	} {
		h, l, e := newTestHandler()
		l.Book(context.Background(), testDoctor(4, "Dr. Four"), "d", "t")

		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("index")
		c.SetParamValues(tc.index)

		if err := h.CancelAppointment(c); err != nil {
			t.Fatalf("index %s: unexpected error: %v", tc.index, err)
		}
		if rec.Code != tc.code {
			t.Errorf("index %s: expected %d, got %d", tc.index, tc.code, rec.Code)
		}
		if n := len(l.List(context.Background())); n != tc.remaining {
			t.Errorf("index %s: %d entries remain, want %d", tc.index, n, tc.remaining)
		}
	}
}

func TestHandler_CancelAppointment_BadIndex(t *testing.T) {
	h, _, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	c.SetParamNames("index")
	c.SetParamValues("first")

	err := h.CancelAppointment(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 HTTPError, got %v", err)
	}
}
