// Package importer loads reports exported from the legacy document store.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/CLillis357/VigilantIE/internal/domain"
	"github.com/CLillis357/VigilantIE/pkg/e"
)

// legacyNamespace derives stable report ids from legacy document ids.
var legacyNamespace = uuid.MustParse("6f1c3e0a-2b7d-4c55-9a1e-7d0b8f4c2a91")

type ReportStore interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Report, error)
	Create(ctx context.Context, report *domain.Report) error
}

// VersionBumper advances the shared report-set version so running servers
// reload the listing and recompute alerts.
type VersionBumper interface {
	Invalidate(ctx context.Context) (int64, error)
}

type legacyReport struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Latitude  *float64        `json:"latitude"`
	Longitude *float64        `json:"longitude"`
	CreatedAt json.RawMessage `json:"createdAt"`
	UserID    string          `json:"userId"`
}

type Result struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Invalid  int `json:"invalid"`
}

type Importer struct {
	store   ReportStore
	version VersionBumper
	logger  *slog.Logger
	dryRun  bool
}

// New returns an importer. version may be nil when no server shares the store.
func New(store ReportStore, version VersionBumper, logger *slog.Logger, dryRun bool) *Importer {
	return &Importer{store: store, version: version, logger: logger, dryRun: dryRun}
}

// Run streams a JSON array of legacy documents into the store. Invalid documents
// are logged and counted; reports that already exist are skipped, so a rerun is safe.
// When anything was written, even before a failure, the report-set version is bumped.
func (im *Importer) Run(ctx context.Context, r io.Reader) (Result, error) {
	res, err := im.load(ctx, r)
	if im.dryRun || res.Imported == 0 || im.version == nil {
		return res, err
	}

	v, verr := im.version.Invalidate(context.WithoutCancel(ctx))
	if verr != nil {
		im.logger.Error("report version bump failed, servers will not see the import until the next write",
			slog.Int("imported", res.Imported), slog.Any("error", verr))
		return res, errors.Join(err, fmt.Errorf("importer.Run: bump report version: %w", verr))
	}
	im.logger.Info("report version bumped", slog.Int64("version", v))
	return res, err
}

func (im *Importer) load(ctx context.Context, r io.Reader) (Result, error) {
	const op = "importer.Run"
	var res Result

	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return res, fmt.Errorf("%s: read array start: %w", op, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return res, fmt.Errorf("%s: expected a JSON array: %w", op, e.ErrInvalidInput)
	}

	for i := 0; dec.More(); i++ {
		if err := ctx.Err(); err != nil {
			return res, e.WrapError(ctx, op, err)
		}

		var doc legacyReport
		if err := dec.Decode(&doc); err != nil {
			return res, fmt.Errorf("%s: decode document %d: %w", op, i, err)
		}

		report, err := toReport(doc)
		if err != nil {
			im.logger.Warn("skipping invalid document", slog.Int("index", i), slog.String("legacy_id", doc.ID), slog.Any("error", err))
			res.Invalid++
			continue
		}

		created, err := im.save(ctx, &report)
		if err != nil {
			return res, fmt.Errorf("%s: document %d: %w", op, i, err)
		}
		if created {
			res.Imported++
		} else {
			res.Skipped++
		}
	}

	if _, err := dec.Token(); err != nil {
		return res, fmt.Errorf("%s: read array end: %w", op, err)
	}

	im.logger.Info("import finished",
		slog.Int("imported", res.Imported),
		slog.Int("skipped", res.Skipped),
		slog.Int("invalid", res.Invalid),
		slog.Bool("dry_run", im.dryRun))

	return res, nil
}

func (im *Importer) save(ctx context.Context, report *domain.Report) (bool, error) {
	_, err := im.store.Get(ctx, report.ID)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, e.ErrNotFound):
		return false, err
	}

	if im.dryRun {
		return true, nil
	}
	if err := im.store.Create(ctx, report); err != nil {
		return false, err
	}
	return true, nil
}

func toReport(doc legacyReport) (domain.Report, error) {
	t := domain.CrimeType(doc.Type)
	if !t.Valid() {
		return domain.Report{}, fmt.Errorf("%w: %q", e.ErrInvalidCrimeType, doc.Type)
	}
	if doc.Latitude == nil || doc.Longitude == nil {
		return domain.Report{}, fmt.Errorf("%w: latitude and longitude are required", e.ErrInvalidCoordinates)
	}
	loc := domain.Coordinate{Latitude: *doc.Latitude, Longitude: *doc.Longitude}
	if err := loc.Validate(); err != nil {
		return domain.Report{}, err
	}
	createdAt, err := domain.ParseCreatedAt(doc.CreatedAt)
	if err != nil {
		return domain.Report{}, err
	}

	return domain.Report{
		ID:        legacyID(doc.ID),
		Type:      t,
		Location:  loc,
		CreatedAt: createdAt,
		OwnerID:   doc.UserID,
	}, nil
}

func legacyID(id string) uuid.UUID {
	if id == "" {
		return uuid.New()
	}
	if u, err := uuid.Parse(id); err == nil {
		return u
	}
	return uuid.NewSHA1(legacyNamespace, []byte(id))
}
