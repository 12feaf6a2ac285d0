package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"civicadmin/internal/aggregate"
	"civicadmin/internal/domain"
	"civicadmin/internal/models"
	"civicadmin/pkg/location"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	EventSnapshot      = "snapshot"
	EventStatusChanged = "status_changed"
)

// Source is the remote store holding reports, votes and profiles.
type Source interface {
	ListReports(ctx context.Context) ([]models.Report, error)
	ListInteractions(ctx context.Context) ([]models.Interaction, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	UpdateReportStatus(ctx context.Context, id, status string, at time.Time) (*models.Report, error)
}

type Thumbnailer interface {
	Thumbnails(refs []string) []string
}

// Publisher fans dashboard events out to live clients.
type Publisher interface {
	BroadcastAll(payload interface{})
}

type Notifier interface {
	NotifyStatusChanged(ctx context.Context, r *models.Report, from string) error
}

type Auditor interface {
	RecordStatusChange(ctx context.Context, actorID, reportID, from, to, ip, userAgent string) error
}

// Actor identifies who triggered a write.
type Actor struct {
	ID        string
	IP        string
	UserAgent string
}

// Options configures a Dashboard. Every collaborator is optional.
type Options struct {
	ResolveReporters bool
	FetchTimeout     time.Duration
	Thumbnailer      Thumbnailer
	Events           Publisher
	Notifier         Notifier
	Auditor          Auditor
}

// Snapshot is one aggregated view of the remote tables. Rows are never
// mutated in place; writers replace the slice.
type Snapshot struct {
	Rows      []models.ReportWithVotes
	FetchedAt time.Time
	Seq       uint64
}

// Query narrows a snapshot. Zero values disable each filter.
type Query struct {
	Status   string
	Category string
	Near     *location.Point
	RadiusKm float64
}

type Event struct {
	Type      string                  `json:"type"`
	Report    *models.ReportWithVotes `json:"report,omitempty"`
	From      string                  `json:"from,omitempty"`
	Counts    aggregate.Counts        `json:"counts"`
	FetchedAt time.Time               `json:"fetched_at"`
}

// Dashboard keeps the latest aggregated snapshot and applies status changes.
//
// Every refresh and every confirmed write takes a sequence number. A refresh
// whose number is lower than the last installed refresh is discarded. A
// refresh that started before a confirmed write may have fetched the old
// status, so writes are logged and replayed onto the fetched rows until a
// refresh that started after them is installed.
type Dashboard struct {
	src  Source
	opts Options
	log  *zap.Logger
	now  func() time.Time

	seq atomic.Uint64

	mu        sync.RWMutex
	snap      *Snapshot
	refreshed uint64
	writes    []mirroredWrite
}

// mirroredWrite is a confirmed status change not yet known to be covered by
// an installed refresh.
type mirroredWrite struct {
	seq    uint64
	id     string
	status string
	at     time.Time
}

func NewDashboard(src Source, opts Options, log *zap.Logger) *Dashboard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dashboard{src: src, opts: opts, log: log, now: time.Now}
}

// Refresh fetches all tables and installs a new snapshot. Any failed fetch
// fails the whole refresh and leaves the previous snapshot in place.
func (d *Dashboard) Refresh(ctx context.Context) (*Snapshot, error) {
	token := d.seq.Add(1)
	if d.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.FetchTimeout)
		defer cancel()
	}

	var (
		reports      []models.Report
		interactions []models.Interaction
		profiles     []models.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if reports, err = d.src.ListReports(gctx); err != nil {
			return fmt.Errorf("list reports: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if interactions, err = d.src.ListInteractions(gctx); err != nil {
			return fmt.Errorf("list interactions: %w", err)
		}
		return nil
	})
	if d.opts.ResolveReporters {
		g.Go(func() error {
			var err error
			if profiles, err = d.src.ListProfiles(gctx); err != nil {
				return fmt.Errorf("list profiles: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		d.log.Warn("dashboard refresh failed", zap.Uint64("seq", token), zap.Error(err))
		return nil, err
	}

	var rows []models.ReportWithVotes
	if d.opts.ResolveReporters {
		rows = aggregate.AggregateWithProfiles(reports, interactions, profiles)
	} else {
		rows = aggregate.Aggregate(reports, interactions)
	}
	if d.opts.Thumbnailer != nil {
		for i := range rows {
			rows[i].PhotoThumbnails = d.opts.Thumbnailer.Thumbnails(rows[i].PhotoURLs)
		}
	}
	next := &Snapshot{Rows: rows, FetchedAt: d.now().UTC(), Seq: token}

	d.mu.Lock()
	if token < d.refreshed {
		current, installed := d.snap, d.refreshed
		d.mu.Unlock()
		d.log.Debug("discarding stale refresh", zap.Uint64("seq", token), zap.Uint64("installed", installed))
		return current, nil
	}
	replayed := d.replayWrites(rows, token)
	d.snap = next
	d.refreshed = token
	d.mu.Unlock()

	d.log.Info("dashboard refreshed",
		zap.Uint64("seq", token),
		zap.Int("replayed", replayed),
		zap.Int("reports", len(reports)),
		zap.Int("interactions", len(interactions)),
		zap.Int("profiles", len(profiles)))
	d.publish(SnapshotEvent(next))
	return next, nil
}

// replayWrites applies logged writes newer than token to rows and drops the
// ones the fetch already covers. Callers hold d.mu.
func (d *Dashboard) replayWrites(rows []models.ReportWithVotes, token uint64) int {
	kept := d.writes[:0]
	replayed := 0
	for _, w := range d.writes {
		if w.seq < token {
			continue
		}
		kept = append(kept, w)
		for i := range rows {
			if rows[i].ID == w.id {
				rows[i].Status = w.status
				rows[i].UpdatedAt = w.at
				replayed++
				break
			}
		}
	}
	d.writes = kept
	return replayed
}

// SnapshotEvent summarizes a snapshot for live clients.
func SnapshotEvent(s *Snapshot) Event {
	return Event{Type: EventSnapshot, Counts: aggregate.CountByStatus(s.Rows), FetchedAt: s.FetchedAt}
}

// Snapshot returns the current snapshot, fetching one first if none exists.
func (d *Dashboard) Snapshot(ctx context.Context) (*Snapshot, error) {
	d.mu.RLock()
	snap := d.snap
	d.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	return d.Refresh(ctx)
}

// Reports returns the filtered rows of the current snapshot in fetch order.
func (d *Dashboard) Reports(ctx context.Context, q Query) ([]models.ReportWithVotes, *Snapshot, error) {
	snap, err := d.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	return Apply(snap.Rows, q), snap, nil
}

// Apply runs a query over rows.
func Apply(rows []models.ReportWithVotes, q Query) []models.ReportWithVotes {
	rows = aggregate.FilterByStatus(rows, q.Status)
	rows = aggregate.FilterByCategory(rows, q.Category)
	if q.Near != nil && q.RadiusKm > 0 {
		rows = aggregate.Near(rows, *q.Near, q.RadiusKm)
	}
	return rows
}

func (d *Dashboard) Counts(ctx context.Context) (aggregate.Counts, error) {
	snap, err := d.Snapshot(ctx)
	if err != nil {
		return aggregate.Counts{}, err
	}
	return aggregate.CountByStatus(snap.Rows), nil
}

// UpdateStatus writes the new status remotely and, once confirmed, mirrors it
// into the snapshot row with the same id. Any status may move to any other.
func (d *Dashboard) UpdateStatus(ctx context.Context, actor Actor, id, status string) (*models.ReportWithVotes, error) {
	if !domain.IsValidStatus(status) {
		return nil, domain.ErrInvalidStatus
	}
	at := d.now().UTC()
	updated, err := d.src.UpdateReportStatus(ctx, id, status, at)
	if err != nil {
		d.log.Warn("status update failed", zap.String("report_id", id), zap.String("status", status), zap.Error(err))
		return nil, fmt.Errorf("update report %s: %w", id, err)
	}
	if updated.UpdatedAt.IsZero() {
		updated.UpdatedAt = at
	}

	var (
		row  *models.ReportWithVotes
		from string
	)
	d.mu.Lock()
	// Taken under the lock so the write log stays in sequence order.
	token := d.seq.Add(1)
	d.writes = append(d.writes, mirroredWrite{seq: token, id: id, status: status, at: updated.UpdatedAt})
	if d.snap != nil {
		for i := range d.snap.Rows {
			if d.snap.Rows[i].ID != id {
				continue
			}
			rows := make([]models.ReportWithVotes, len(d.snap.Rows))
			copy(rows, d.snap.Rows)
			from = rows[i].Status
			rows[i].Status = status
			rows[i].UpdatedAt = updated.UpdatedAt
			r := rows[i]
			row = &r
			d.snap = &Snapshot{Rows: rows, FetchedAt: d.snap.FetchedAt, Seq: token}
			break
		}
	}
	var counts aggregate.Counts
	if d.snap != nil {
		counts = aggregate.CountByStatus(d.snap.Rows)
	}
	d.mu.Unlock()

	if row == nil {
		row = &models.ReportWithVotes{Report: *updated}
		if d.opts.Thumbnailer != nil {
			row.PhotoThumbnails = d.opts.Thumbnailer.Thumbnails(updated.PhotoURLs)
		}
	}
	d.log.Info("report status changed",
		zap.String("report_id", id),
		zap.String("from", from),
		zap.String("to", status),
		zap.String("actor", actor.ID))

	if d.opts.Auditor != nil {
		if err := d.opts.Auditor.RecordStatusChange(ctx, actor.ID, id, from, status, actor.IP, actor.UserAgent); err != nil {
			d.log.Warn("audit write failed", zap.String("report_id", id), zap.Error(err))
		}
	}
	if d.opts.Notifier != nil {
		if err := d.opts.Notifier.NotifyStatusChanged(ctx, &row.Report, from); err != nil {
			d.log.Warn("status notification failed", zap.String("report_id", id), zap.Error(err))
		}
	}
	d.publish(Event{Type: EventStatusChanged, Report: row, From: from, Counts: counts, FetchedAt: at})
	return row, nil
}

func (d *Dashboard) publish(e Event) {
	if d.opts.Events != nil {
		d.opts.Events.BroadcastAll(e)
	}
}
