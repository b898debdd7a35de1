// Package runner drives one complete run: fetch every source, compute
// deltas against history, dispatch the rendered report, and commit or
// roll back the history mutations depending on delivery outcome.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/kronicd/WA-Covid-Mailer/internal/channel"
	"github.com/kronicd/WA-Covid-Mailer/internal/delta"
	"github.com/kronicd/WA-Covid-Mailer/internal/domain"
	"github.com/kronicd/WA-Covid-Mailer/internal/logger"
	"github.com/kronicd/WA-Covid-Mailer/internal/normalize"
	"github.com/kronicd/WA-Covid-Mailer/internal/render"
	"github.com/kronicd/WA-Covid-Mailer/internal/source"
	"github.com/kronicd/WA-Covid-Mailer/internal/store"
)

// HistoryDB is the store plus the snapshot lifecycle the runner drives
// in place of a long-lived transaction.
type HistoryDB interface {
	store.Store
	Snapshot() error
	Commit() error
	Restore() error
}

// Config is the explicit per-run policy; there is no process-global
// state.
type Config struct {
	// Debug logs the report instead of dispatching it (history still commits)
	Debug bool
	// FailFast aborts the run on the first source fetch failure; otherwise
	// failed sources are skipped with an admin alert
	FailFast bool
	// Location resolves the run timestamp
	Location *time.Location
	// Policy decides which classifications notify per source
	Policy render.Policy
}

// Runner executes one run-to-completion invocation.
type Runner struct {
	cfg      Config
	db       HistoryDB
	sources  []source.Source
	channels []channel.Dispatcher
	admin    channel.Alerter
	now      func() time.Time
}

// New assembles a runner.
func New(cfg Config, db HistoryDB, sources []source.Source, channels []channel.Dispatcher, admin channel.Alerter) *Runner {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Runner{
		cfg:      cfg,
		db:       db,
		sources:  sources,
		channels: channels,
		admin:    admin,
		now:      time.Now,
	}
}

// Run performs one complete run. The returned error's kind maps to the
// process exit code via domain.ExitCode.
func (r *Runner) Run(ctx context.Context) error {
	runID := uuid.NewString()
	runTS := r.now().In(r.cfg.Location).Unix()
	log := logger.Default().With(zap.String("run_id", runID))

	log.Info("starting run",
		zap.Int64("run_ts", runTS),
		zap.Int("sources", len(r.sources)),
		zap.Int("channels", len(r.channels)),
	)

	// Fetch everything before touching the store, so a failed source can
	// never leave a partially committed batch behind.
	batches, err := r.fetchAll(ctx, log)
	if err != nil {
		return err
	}

	for _, s := range r.sources {
		if err := r.db.EnsureSchema(ctx, s.Schema()); err != nil {
			return err
		}
	}

	if err := r.db.Snapshot(); err != nil {
		return err
	}

	changeSets, err := r.computeDeltas(ctx, batches, runTS)
	if err != nil {
		// History is already partially mutated; put the snapshot back so
		// the next run sees the pre-run state.
		if restoreErr := r.db.Restore(); restoreErr != nil {
			logger.Error(restoreErr)
		}
		return err
	}

	report := render.Report(changeSets, r.cfg.Policy)
	if report == "" {
		log.Info("nothing to notify")
		return r.db.Commit()
	}

	if r.cfg.Debug {
		log.Info("debug mode, skipping delivery", zap.String("report", report))
		return r.db.Commit()
	}

	noticeID := ulid.Make().String()
	log.Info("dispatching report",
		zap.String("notice_id", noticeID),
		zap.Int("bytes", len(report)),
	)

	if err := r.dispatch(ctx, log, noticeID, report); err != nil {
		if restoreErr := r.db.Restore(); restoreErr != nil {
			logger.Error(restoreErr)
		}
		r.admin.Alert(ctx, "Unable to send mail, please investigate: "+err.Error())
		return err
	}

	return r.db.Commit()
}

// fetchAll fetches every source in configured order, then normalizes and
// dedupes each batch. Under fail-fast the first failure aborts; under
// best-effort failed sources are skipped, but a run where every source
// failed is still a fetch failure.
func (r *Runner) fetchAll(ctx context.Context, log *zap.Logger) (map[string][]domain.Record, error) {
	batches := make(map[string][]domain.Record, len(r.sources))
	failures := 0

	for _, s := range r.sources {
		records, err := s.Fetch(ctx)
		if err != nil {
			fetchErr := &domain.FetchError{Source: s.Name(), Err: err}
			if r.cfg.FailFast {
				r.admin.Alert(ctx, "Unable to fetch data, please investigate: "+fetchErr.Error())
				return nil, fetchErr
			}
			log.Warn("skipping source", zap.String("source", s.Name()), zap.Error(err))
			r.admin.Alert(ctx, "Skipped source this run: "+fetchErr.Error())
			failures++
			continue
		}

		batch := normalize.DedupeKeys(normalize.Batch(records))
		batches[s.Name()] = batch
		log.Debug("fetched source", zap.String("source", s.Name()), zap.Int("records", len(batch)))
	}

	if len(r.sources) > 0 && failures == len(r.sources) {
		return nil, &domain.FetchError{Source: "all", Err: fmt.Errorf("every source failed")}
	}

	return batches, nil
}

// computeDeltas runs the delta engine per source, preserving source
// order for the report.
func (r *Runner) computeDeltas(ctx context.Context, batches map[string][]domain.Record, runTS int64) ([][]domain.Change, error) {
	engine := delta.NewEngine(r.db)
	changeSets := make([][]domain.Change, 0, len(r.sources))

	for _, s := range r.sources {
		batch, ok := batches[s.Name()]
		if !ok {
			continue
		}
		changes, err := engine.Process(ctx, batch, runTS)
		if err != nil {
			return nil, err
		}
		changeSets = append(changeSets, changes)
	}

	return changeSets, nil
}

// dispatch attempts every channel once. Non-critical failures are logged
// and swallowed; a critical failure is returned after the remaining
// channels have been attempted.
func (r *Runner) dispatch(ctx context.Context, log *zap.Logger, noticeID, report string) error {
	var critical error

	for _, ch := range r.channels {
		err := ch.Send(ctx, report)
		if err == nil {
			log.Info("delivered", zap.String("channel", ch.Name()), zap.String("notice_id", noticeID))
			continue
		}

		deliveryErr := &domain.DeliveryError{Channel: ch.Name(), Critical: ch.Critical(), Err: err}
		logger.Error(deliveryErr, zap.String("notice_id", noticeID))

		if ch.Critical() && critical == nil {
			critical = deliveryErr
		}
	}

	return critical
}
