package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Kerhoff/fastclub/internal/calendar"
	"github.com/Kerhoff/fastclub/internal/fees"
	"github.com/Kerhoff/fastclub/internal/repository"
	"github.com/Kerhoff/fastclub/internal/service"
)

const dateLayout = "2006-01-02"

// Server provides the HTTP API.
type Server struct {
	svc      *service.Service
	logger   *logrus.Logger
	mux      *http.ServeMux
	validate *validator.Validate

	// generateLimiter throttles manual annual fee runs
	generateLimiter *rate.Limiter
}

// NewServer creates a Server, registers all routes, and returns it. A nil
// limiter allows five fee generation requests per minute.
func NewServer(svc *service.Service, logger *logrus.Logger, generateLimiter *rate.Limiter) *Server {
	if generateLimiter == nil {
		generateLimiter = rate.NewLimiter(rate.Every(time.Minute/5), 5)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	s := &Server{
		svc:             svc,
		logger:          logger,
		mux:             http.NewServeMux(),
		validate:        validate,
		generateLimiter: generateLimiter,
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	// API – Clubs
	s.mux.HandleFunc("GET /api/clubs", s.handleGetClubs)
	s.mux.HandleFunc("POST /api/clubs", s.handleCreateClub)
	s.mux.HandleFunc("GET /api/clubs/{id}", s.handleGetClub)

	// API – Members
	s.mux.HandleFunc("GET /api/members", s.handleGetMembers)
	s.mux.HandleFunc("POST /api/members", s.handleCreateMember)
	s.mux.HandleFunc("GET /api/members/{id}", s.handleGetMember)
	s.mux.HandleFunc("PUT /api/members/{id}", s.handleUpdateMember)
	s.mux.HandleFunc("DELETE /api/members/{id}", s.handleDeleteMember)

	// API – Meetings
	s.mux.HandleFunc("GET /api/meetings/rules", s.handleGetMeetingRules)
	s.mux.HandleFunc("PUT /api/meetings/rules", s.handleReplaceMeetingRules)
	s.mux.HandleFunc("GET /api/meetings/upcoming", s.handleUpcomingMeetings)
	s.mux.HandleFunc("GET /api/agenda", s.handleAgenda)

	// API – Calendar events
	s.mux.HandleFunc("GET /api/events", s.handleGetEvents)
	s.mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	s.mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)

	// API – Fees
	s.mux.HandleFunc("GET /api/fee-types", s.handleGetFeeTypes)
	s.mux.HandleFunc("POST /api/fee-types", s.handleCreateFeeType)
	s.mux.HandleFunc("DELETE /api/fee-types/{id}", s.handleDeleteFeeType)
	s.mux.HandleFunc("GET /api/fees", s.handleGetFees)
	s.mux.HandleFunc("POST /api/fees", s.handleCreateFee)
	s.mux.HandleFunc("POST /api/fees/generate", s.handleGenerateFees)
	s.mux.HandleFunc("GET /api/fees/summary", s.handleFeeSummary)
	s.mux.HandleFunc("PUT /api/fees/{id}/paid", s.handleMarkFeePaid)
	s.mux.HandleFunc("PUT /api/fees/{id}/waive", s.handleWaiveFee)
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps a service error to a status code. Unexpected
// errors are logged and reported as "failed to <action>".
func (s *Server) respondServiceError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, calendar.ErrInvalidRule):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, fees.ErrObligationClosed), errors.Is(err, repository.ErrDuplicateObligation):
		s.respondError(w, http.StatusConflict, err.Error())
	default:
		s.logger.WithError(err).Errorf("failed to %s", action)
		s.respondError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// decodeJSON reads the request body into dst and validates it. On failure
// it writes the error response and returns false.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		s.respondError(w, http.StatusBadRequest, "request body is empty")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.respondValidationError(w, err)
		return false
	}
	return true
}

func (s *Server) respondValidationError(w http.ResponseWriter, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		s.respondError(w, http.StatusBadRequest, "invalid input")
		return
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	s.respondJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": fields,
	})
}

// pathID extracts the {id} path value and converts it to int64.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return 0, fmt.Errorf("missing id in path")
	}
	return strconv.ParseInt(raw, 10, 64)
}

// requireClubID reads the club_id query parameter. It writes an error
// response and returns 0 when the parameter is absent or invalid.
func (s *Server) requireClubID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("club_id")
	if raw == "" {
		s.respondError(w, http.StatusBadRequest, "club_id query parameter is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "club_id must be an integer")
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter, returning def when
// it is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

// parseDate parses a "YYYY-MM-DD" value. Empty input yields the zero time.
func parseDate(field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a YYYY-MM-DD date", field)
	}
	return t, nil
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if last := s.svc.LastSweep(); !last.IsZero() {
		resp["last_sweep"] = last
	}
	if err := s.svc.Ping(r.Context()); err != nil {
		s.logger.WithError(err).Warn("health check failed")
		resp["status"] = "unavailable"
		s.respondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}
