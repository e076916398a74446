package public

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/CLillis357/VigilantIE/internal/auth"
	"github.com/CLillis357/VigilantIE/internal/domain"
	"github.com/CLillis357/VigilantIE/internal/middleware"
	"github.com/CLillis357/VigilantIE/pkg/e"
	"github.com/CLillis357/VigilantIE/pkg/validator"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type Reports interface {
	Visible(ctx context.Context, criteria domain.FilterCriteria, pos *domain.UserPosition, viewerID string) ([]domain.Report, error)
	Create(ctx context.Context, req domain.CreateReportRequest, ownerID string) (domain.Report, error)
	Delete(ctx context.Context, id uuid.UUID, viewerID string) error
}

type Positions interface {
	Position(ctx context.Context, userID string) (domain.UserPosition, bool, error)
	UpdatePosition(ctx context.Context, userID string, coord domain.Coordinate) (domain.PositionUpdateResponse, error)
}

type AlertStream interface {
	Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error)
	Serve(conn *websocket.Conn, userID string)
}

type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

type Handler struct {
	logger    *slog.Logger
	Reports   Reports
	Positions Positions
	Stream    AlertStream
	Tokens    TokenValidator
	now       func() time.Time
}

func NewHandler(logger *slog.Logger, reports Reports, positions Positions, stream AlertStream, tokens TokenValidator) *Handler {
	return &Handler{
		logger:    logger,
		Reports:   reports,
		Positions: positions,
		Stream:    stream,
		Tokens:    tokens,
		now:       time.Now,
	}
}

// ListReports serves GET /reports. Query: type, window, radius, scope, tz, lat, lng, format.
// tz is an IANA zone name that sets the calendar day for window=today; without it the
// server's local day applies.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	q := r.URL.Query()
	viewer := middleware.UserID(r.Context())

	criteria, err := parseCriteria(q.Get("type"), q.Get("window"), q.Get("radius"), q.Get("scope"), q.Get("tz"))
	if err != nil {
		l.Warn("invalid filter", slog.String("query", r.URL.RawQuery), slog.Any("error", err))
		h.handleError(w, err)
		return
	}
	if criteria.FeedScope == domain.ScopeMine && viewer == "" {
		h.handleError(w, fmt.Errorf("scope=mine needs a signed-in viewer: %w", e.ErrUnauthorized))
		return
	}

	pos, err := h.viewerPosition(r, q.Get("lat"), q.Get("lng"), viewer)
	if err != nil {
		l.Warn("invalid viewer position", slog.String("query", r.URL.RawQuery), slog.Any("error", err))
		h.handleError(w, err)
		return
	}

	reports, err := h.Reports.Visible(r.Context(), criteria, pos, viewer)
	if err != nil {
		l.Error("Reports.Visible failed", slog.Any("error", err))
		h.handleError(w, err)
		return
	}

	l.Debug("reports listed",
		slog.Int("count", len(reports)),
		slog.String("type", string(criteria.Type)),
		slog.String("window", string(criteria.TimeWindow)),
		slog.Bool("has_position", pos != nil))

	if strings.EqualFold(q.Get("format"), "geojson") {
		h.writeGeoJSON(w, reports, viewer)
		return
	}

	h.writeJSON(w, http.StatusOK, newReportsResponse(reports, viewer))
}

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request, req domain.CreateReportRequest) {
	l := h.log(r)
	owner := middleware.UserID(r.Context())

	report, err := h.Reports.Create(r.Context(), req, owner)
	if err != nil {
		l.Error("Reports.Create failed", slog.String("type", string(req.Type)), slog.Any("error", err))
		h.handleError(w, err)
		return
	}

	l.Info("report created", slog.String("id", report.ID.String()), slog.String("type", string(report.Type)))
	h.writeJSON(w, http.StatusCreated, domain.NewReportView(report, owner))
}

func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)

	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		l.Warn("invalid report id", slog.String("id", idStr))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.Reports.Delete(r.Context(), id, middleware.UserID(r.Context())); err != nil {
		l.Warn("Reports.Delete failed", slog.String("id", id.String()), slog.Any("error", err))
		h.handleError(w, err)
		return
	}

	l.Info("report deleted", slog.String("id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// UpdatePosition serves POST /positions for the signed-in viewer.
func (h *Handler) UpdatePosition(w http.ResponseWriter, r *http.Request, req domain.PositionUpdateRequest) {
	l := h.log(r)
	user := middleware.UserID(r.Context())

	resp, err := h.Positions.UpdatePosition(r.Context(), user, req.Coordinate())
	if err != nil {
		l.Error("Positions.UpdatePosition failed", slog.String("user_id", user), slog.Any("error", err))
		h.handleError(w, err)
		return
	}

	if resp.Fired {
		l.Info("proximity alert fired", slog.String("user_id", user), slog.Int("count", resp.Count))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CrimeTypes(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, newCrimeTypesResponse())
}

func (h *Handler) Assistance(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, domain.AssistanceContacts())
}

// AlertStream upgrades to a websocket carrying the viewer's alert events.
// Browsers cannot set headers on the upgrade, so ?token= is accepted too.
func (h *Handler) AlertStream(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)

	user := middleware.UserID(r.Context())
	if user == "" {
		token := r.URL.Query().Get("token")
		if token == "" {
			h.handleError(w, fmt.Errorf("missing token: %w", e.ErrUnauthorized))
			return
		}
		claims, err := h.Tokens.ValidateToken(token)
		if err != nil {
			l.Warn("alert stream token rejected", slog.Any("error", err))
			h.handleError(w, err)
			return
		}
		user = claims.User()
	}

	conn, err := h.Stream.Upgrade(w, r)
	if err != nil {
		// the upgrader has already written the HTTP error
		l.Warn("websocket upgrade failed", slog.String("user_id", user), slog.Any("error", err))
		return
	}

	l.Info("alert stream connected", slog.String("user_id", user))
	h.Stream.Serve(conn, user)
}

func (h *Handler) viewerPosition(r *http.Request, latStr, lngStr, viewer string) (*domain.UserPosition, error) {
	if latStr == "" && lngStr == "" {
		if viewer == "" {
			return nil, nil
		}
		pos, ok, err := h.Positions.Position(r.Context(), viewer)
		if err != nil {
			// filtering still works without a position
			h.log(r).Warn("stored position unavailable", slog.String("user_id", viewer), slog.Any("error", err))
			return nil, nil
		}
		if !ok {
			return nil, nil
		}
		return &pos, nil
	}

	lat, latErr := strconv.ParseFloat(latStr, 64)
	lng, lngErr := strconv.ParseFloat(lngStr, 64)
	if latErr != nil || lngErr != nil {
		return nil, fmt.Errorf("lat and lng must both be numbers: %w", e.ErrInvalidCoordinates)
	}

	c := domain.Coordinate{Latitude: lat, Longitude: lng}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &domain.UserPosition{Coordinate: c, CapturedAt: h.now().UTC()}, nil
}

func parseCriteria(typ, window, radius, scope, tz string) (domain.FilterCriteria, error) {
	c := domain.DefaultCriteria()
	if typ != "" {
		c.Type = domain.CrimeType(typ)
	}

	var err error
	if c.TimeWindow, err = domain.ParseTimeWindow(window); err != nil {
		return c, err
	}
	if c.Radius, err = domain.ParseRadius(radius); err != nil {
		return c, err
	}
	if c.FeedScope, err = domain.ParseFeedScope(scope); err != nil {
		return c, err
	}
	if tz != "" {
		if c.Location, err = time.LoadLocation(tz); err != nil {
			return c, fmt.Errorf("%w: unknown time zone %q", e.ErrInvalidInput, tz)
		}
	}
	if err := validator.ValidateStruct(c); err != nil {
		return c, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
	}
	return c, c.Validate()
}
