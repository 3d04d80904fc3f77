package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"stolik/internal/database"
	"stolik/internal/metrics"
	"stolik/internal/models"
	"stolik/internal/reservation"
)

type createBookingRequest struct {
	UserID  string `json:"user_id"`
	TableID string `json:"table_id"`
	Date    string `json:"date"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Guests  int    `json:"guests"`
}

type bookingResponse struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	TableID string `json:"table_id"`
	Date    string `json:"date"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Guests  int    `json:"guests"`
	Status  string `json:"status"`
	Version int64  `json:"version"`
}

func toBookingResponse(b *models.Booking) bookingResponse {
	return bookingResponse{
		ID:      b.ID,
		UserID:  b.UserID,
		TableID: b.TableID,
		Date:    b.DateKey(),
		Start:   b.Slot.StartClock(),
		End:     b.Slot.EndClock(),
		Guests:  b.Guests,
		Status:  string(b.Status),
		Version: b.Version,
	}
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings")
	switch r.Method {
	case http.MethodPost:
		s.createBooking(w, r)
	case http.MethodGet:
		s.listBookings(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) createBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.TableID == "" {
		writeError(w, http.StatusBadRequest, "user_id and table_id are required")
		return
	}

	date, err := time.Parse(models.DateFormat, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid date %q, want YYYY-MM-DD", req.Date))
		return
	}
	slot, err := models.ParseInterval(req.Start, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := s.coordinator.Admit(r.Context(), reservation.Request{
		UserID:  req.UserID,
		TableID: req.TableID,
		Date:    date,
		Slot:    slot,
		Guests:  req.Guests,
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(booking))
}

func (s *HTTPServer) listBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if userID := q.Get("user"); userID != "" {
		bookings, err := s.store.ListBookingsByUser(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list bookings")
			return
		}
		writeBookingList(w, bookings)
		return
	}

	tableID := q.Get("table")
	dateStr := q.Get("date")
	if tableID == "" || dateStr == "" {
		writeError(w, http.StatusBadRequest, "table and date query parameters are required")
		return
	}
	date, err := time.Parse(models.DateFormat, dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid date %q, want YYYY-MM-DD", dateStr))
		return
	}

	bookings, err := s.coordinator.ListConfirmed(r.Context(), tableID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	writeBookingList(w, bookings)
}

func writeBookingList(w http.ResponseWriter, bookings []*models.Booking) {
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResponse(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": out})
}

func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_by_id")
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		booking, err := s.store.GetBooking(r.Context(), id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				writeError(w, http.StatusNotFound, "booking not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to get booking")
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponse(booking))
	case http.MethodDelete:
		if err := s.coordinator.Cancel(r.Context(), id); err != nil {
			s.writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled", "id": id})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleTables(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("tables")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	tables, err := s.store.ListTables(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tables")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

// handleAvailability serves the advisory occupancy view for one table
// and date, read through the slot cache. A free-looking window is not
// a reservation guarantee: only POST /bookings is authoritative.
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	numberStr := strings.TrimPrefix(r.URL.Path, "/api/v1/availability/")
	var number int
	if _, err := fmt.Sscanf(numberStr, "%d", &number); err != nil || number <= 0 {
		writeError(w, http.StatusBadRequest, "table number is required")
		return
	}
	dateStr := r.URL.Query().Get("date")
	if _, err := time.Parse(models.DateFormat, dateStr); err != nil {
		writeError(w, http.StatusBadRequest, "date query parameter is required, want YYYY-MM-DD")
		return
	}

	table, err := s.store.GetTableByNumber(r.Context(), number)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "table not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get table")
		return
	}

	windows, err := s.cache.GetDay(r.Context(), table.ID, dateStr)
	if err != nil || windows == nil {
		date, _ := time.Parse(models.DateFormat, dateStr)
		windows = s.coordinator.Occupancy(table.ID, date)
		if cacheErr := s.cache.SetDay(r.Context(), table.ID, dateStr, windows); cacheErr != nil {
			s.logger.Warn().Err(cacheErr).Msg("slot cache write failed")
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"table":    table.Number,
		"date":     dateStr,
		"capacity": table.Capacity,
		"booked":   windows,
	})
}

func (s *HTTPServer) handleReport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("report")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	from, err := time.Parse(models.DateFormat, r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from query parameter is required, want YYYY-MM-DD")
		return
	}
	to, err := time.Parse(models.DateFormat, r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to query parameter is required, want YYYY-MM-DD")
		return
	}

	file, err := s.exporter.BuildReport(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	if path, err := s.exporter.Archive(file, from, to); err != nil {
		s.logger.Warn().Err(err).Msg("report archive failed")
	} else if path != "" {
		s.logger.Info().Str("path", path).Msg("report archived")
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	if err := file.Write(w); err != nil {
		s.logger.Error().Err(err).Msg("report write failed")
	}
}

// writeEngineError maps reservation errors to HTTP statuses per the
// error taxonomy: structural -> 400, conflicts -> 404/409, contention
// -> 503 with Retry-After.
func (s *HTTPServer) writeEngineError(w http.ResponseWriter, err error) {
	var conflict *reservation.ConflictError
	switch {
	case errors.Is(err, reservation.ErrInvalidTimeRange),
		errors.Is(err, reservation.ErrInvalidPartySize),
		errors.Is(err, reservation.ErrCapacityExceeded),
		errors.Is(err, reservation.ErrOutsideHours):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":          "table is already booked for an overlapping window",
			"conflicting_id": conflict.ConflictingID,
		})
	case errors.Is(err, reservation.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, reservation.ErrNotFound), errors.Is(err, reservation.ErrTableNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, reservation.ErrBusy):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, models.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error().Err(err).Msg("admission failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
