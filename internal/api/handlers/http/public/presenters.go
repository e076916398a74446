package public

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	geojson "github.com/paulmach/go.geojson"

	"github.com/CLillis357/VigilantIE/internal/domain"
	"github.com/CLillis357/VigilantIE/pkg/e"
)

type reportsResponse struct {
	Reports []domain.ReportView `json:"reports"`
	Count   int                 `json:"count"`
}

func newReportsResponse(reports []domain.Report, viewer string) reportsResponse {
	views := make([]domain.ReportView, 0, len(reports))
	for _, r := range reports {
		views = append(views, domain.NewReportView(r, viewer))
	}
	return reportsResponse{Reports: views, Count: len(views)}
}

type crimeTypesResponse struct {
	Types         []domain.CrimeTypeInfo `json:"types"`
	RadiusOptions []domain.Radius        `json:"radius_options"`
	DefaultRadius domain.Radius          `json:"default_radius"`
}

func newCrimeTypesResponse() crimeTypesResponse {
	types := make([]domain.CrimeTypeInfo, 0, len(domain.CrimeTypes()))
	for _, t := range domain.CrimeTypes() {
		types = append(types, domain.CrimeTypeInfo{Type: t, Emoji: t.Emoji()})
	}
	return crimeTypesResponse{
		Types:         types,
		RadiusOptions: domain.RadiusOptions,
		DefaultRadius: domain.DefaultRadius,
	}
}

// newFeatureCollection renders reports as map markers. GeoJSON positions are [lng, lat].
func newFeatureCollection(reports []domain.Report, viewer string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range reports {
		f := geojson.NewPointFeature([]float64{r.Location.Longitude, r.Location.Latitude})
		f.ID = r.ID.String()
		f.SetProperty("type", string(r.Type))
		f.SetProperty("emoji", r.Type.Emoji())
		f.SetProperty("created_at", r.CreatedAt.UTC().Format(time.RFC3339Nano))
		f.SetProperty("deletable", r.DeletableBy(viewer))
		fc.AddFeature(f)
	}
	return fc
}

func (h *Handler) writeGeoJSON(w http.ResponseWriter, reports []domain.Report, viewer string) {
	body, err := newFeatureCollection(reports, viewer).MarshalJSON()
	if err != nil {
		h.logger.Error("geojson encode failed", slog.Any("error", err))
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "encode failed"})
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, e.ErrCorruptReport):
		status = http.StatusInternalServerError
	case errors.Is(err, e.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, e.ErrInvalidInput),
		errors.Is(err, e.ErrInvalidCoordinates),
		errors.Is(err, e.ErrInvalidCrimeType):
		status = http.StatusBadRequest
	case errors.Is(err, e.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, e.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, e.ErrConflict), errors.Is(err, e.ErrUniqueViolation):
		status = http.StatusConflict
	case errors.Is(err, e.ErrDeadline):
		status = http.StatusGatewayTimeout
	default:
		status = http.StatusInternalServerError
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	reqID := chimw.GetReqID(r.Context())
	if reqID == "" {
		return h.logger
	}
	return h.logger.With(slog.String("request_id", reqID))
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("json encode failed", slog.Any("error", err))
	}
}
