package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/CLillis357/VigilantIE/internal/domain"
)

const (
	reportsSnapshotKey = "reports:snapshot"
	reportsVersionKey  = "reports:version"
)

var errVersionMoved = errors.New("report version moved")

// ReportCache holds the last full report listing and the report-set version.
// The version only grows; every invalidation bumps it. A stored snapshot carries
// the version it was loaded under.
type ReportCache struct {
	client     *goredis.Client
	key        string
	versionKey string
	ttl        time.Duration
}

type snapshot struct {
	Version int64           `json:"version"`
	Reports []domain.Report `json:"reports"`
}

func NewReportCache(client *goredis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{
		client:     client,
		key:        reportsSnapshotKey,
		versionKey: reportsVersionKey,
		ttl:        ttl,
	}
}

// Get returns the snapshot and its own version; ok=false on a cache miss.
func (c *ReportCache) Get(ctx context.Context) ([]domain.Report, int64, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, 0, false, nil
		}
		return nil, 0, false, err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, 0, false, err
	}
	if snap.Reports == nil {
		snap.Reports = []domain.Report{}
	}

	return snap.Reports, snap.Version, true, nil
}

// Set stores reports tagged with version, but only while the report-set version
// still equals version. stored=false means a write landed after the listing was
// read and the snapshot was discarded.
func (c *ReportCache) Set(ctx context.Context, reports []domain.Report, version int64) (bool, error) {
	if reports == nil {
		reports = []domain.Report{}
	}
	b, err := json.Marshal(snapshot{Version: version, Reports: reports})
	if err != nil {
		return false, err
	}

	err = c.client.Watch(ctx, func(tx *goredis.Tx) error {
		current, err := tx.Get(ctx, c.versionKey).Int64()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		if current != version {
			return errVersionMoved
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, c.key, b, c.ttl)
			return nil
		})
		return err
	}, c.versionKey)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errVersionMoved), errors.Is(err, goredis.TxFailedErr):
		return false, nil
	default:
		return false, err
	}
}

// Invalidate drops the snapshot and returns the new version.
func (c *ReportCache) Invalidate(ctx context.Context) (int64, error) {
	var incr *goredis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, c.key)
		incr = pipe.Incr(ctx, c.versionKey)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *ReportCache) Version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return v, nil
}
