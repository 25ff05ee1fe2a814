package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/five82/drift/internal/backend"
	"github.com/five82/drift/internal/session"
	"github.com/five82/drift/internal/shelf"
	"github.com/five82/drift/internal/state"
)

// SyncFailedNotice is shown when a local change could not be mirrored.
const SyncFailedNotice = "saved locally, sync failed"

// PendingUploadList holds local-only records still waiting for a server id.
type PendingUploadList []shelf.PendingItem

// IDs lists the external ids in the pending list.
func (p PendingUploadList) IDs() []string {
	ids := make([]string, 0, len(p))
	for _, it := range p {
		ids = append(ids, it.Record.ExternalID)
	}
	return ids
}

// Reconciler keeps the local shelf store and the backend library in step.
// Pull and push runs are serialized against each other and against mirrored
// mutations; the store serializes everything else.
type Reconciler struct {
	mu      sync.Mutex
	store   *shelf.Store
	remote  backend.LibraryService
	status  *state.Store
	metrics *Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// New wires a Reconciler. status, metrics and logger may be nil.
func New(store *shelf.Store, remote backend.LibraryService, status *state.Store, metrics *Metrics, logger *zap.Logger) *Reconciler {
	if status == nil {
		status = &state.Store{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		store:   store,
		remote:  remote,
		status:  status,
		metrics: metrics,
		logger:  logger.Named("reconcile"),
		now:     time.Now,
	}
}

// Status exposes the sync status store shared with the UI.
func (r *Reconciler) Status() *state.Store {
	return r.status
}

// Pending lists local records that have never reached the backend.
func (r *Reconciler) Pending() PendingUploadList {
	return PendingUploadList(r.store.Pending())
}

// Pull fetches the remote snapshot, merges it into the local store and writes
// the result through before returning it.
func (r *Reconciler) Pull(ctx context.Context, sess session.Session) (shelf.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	merged, stats, err := r.pull(ctx, sess)
	r.metrics.observe("pull", start, err)
	if err != nil {
		r.fail("pull", err)
		return nil, err
	}
	r.metrics.addMerged(stats.Touched())
	r.status.Update(&state.SyncResult{
		Op:      "pull",
		Merged:  stats.Touched(),
		Pending: len(merged.Pending()),
	}, nil)
	return merged, nil
}

func (r *Reconciler) pull(ctx context.Context, sess session.Session) (shelf.Collection, MergeStats, error) {
	snap, err := r.remote.FetchSnapshot(ctx, sess)
	if err != nil {
		return nil, MergeStats{}, fmt.Errorf("pull: %w", err)
	}
	merged, stats := merge(r.store.Snapshot(), snap, r.now().UTC())
	if err := r.store.Replace(merged); err != nil {
		return nil, stats, fmt.Errorf("pull: save merged library: %w", err)
	}
	r.logger.Debug("pull merged",
		zap.Int("remote", len(snap)),
		zap.Int("inserted", stats.Inserted),
		zap.Int("updated", stats.Updated),
		zap.Int("moved", stats.Moved),
		zap.Int("skipped", stats.Skipped),
	)
	return merged, stats, nil
}

// PushLocalOnly uploads every record lacking a server id and returns the
// records still pending afterwards. On upload failure nothing changes locally
// and the full selection is returned with the error. On success the returned
// ids are recorded and a fresh pull picks up other devices' changes.
func (r *Reconciler) PushLocalOnly(ctx context.Context, sess session.Session) (PendingUploadList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	remaining, uploaded, stats, err := r.push(ctx, sess)
	r.metrics.observe("push", start, err)
	r.metrics.addUploaded(uploaded)
	r.metrics.addMerged(stats.Touched())
	if err != nil {
		r.fail("push", err)
		return remaining, err
	}
	r.status.Update(&state.SyncResult{
		Op:       "push",
		Merged:   stats.Touched(),
		Uploaded: uploaded,
		Pending:  len(remaining),
	}, nil)
	return remaining, nil
}

func (r *Reconciler) push(ctx context.Context, sess session.Session) (PendingUploadList, int, MergeStats, error) {
	selected := PendingUploadList(r.store.Pending())
	if len(selected) == 0 {
		return nil, 0, MergeStats{}, nil
	}

	ids, err := r.remote.BulkUpsert(ctx, sess, selected)
	if err != nil {
		return selected, 0, MergeStats{}, fmt.Errorf("push %d records: %w", len(selected), err)
	}
	uploaded, err := r.store.SetServerIDs(ids)
	if err != nil {
		return selected, 0, MergeStats{}, fmt.Errorf("push: record server ids: %w", err)
	}
	r.logger.Info("pushed local records",
		zap.Int("selected", len(selected)),
		zap.Int("uploaded", uploaded),
	)

	merged, stats, err := r.pull(ctx, sess)
	if err != nil {
		return PendingUploadList(r.store.Pending()), uploaded, stats, fmt.Errorf("refresh after push: %w", err)
	}
	return PendingUploadList(merged.Pending()), uploaded, stats, nil
}

// Login runs the once-per-login exchange: pull-merge, then push of local-only
// records. Remote failures are recorded in the status store and returned, but
// the local library is never reduced by them.
func (r *Reconciler) Login(ctx context.Context, sess session.Session) (state.SyncResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	result := state.SyncResult{Op: "login"}

	_, pullStats, err := r.pull(ctx, sess)
	if err == nil {
		var pushStats MergeStats
		var remaining PendingUploadList
		remaining, result.Uploaded, pushStats, err = r.push(ctx, sess)
		result.Merged = pullStats.Touched() + pushStats.Touched()
		result.Pending = len(remaining)
	}
	if result.Pending == 0 {
		result.Pending = len(r.store.Pending())
	}

	r.metrics.observe("login", start, err)
	r.metrics.addMerged(result.Merged)
	r.metrics.addUploaded(result.Uploaded)
	if err != nil {
		r.fail("login", err)
		return result, err
	}
	result.Finished = r.now()
	r.status.Update(&result, nil)
	r.logger.Info("login sync complete",
		zap.Int("merged", result.Merged),
		zap.Int("uploaded", result.Uploaded),
		zap.Int("pending", result.Pending),
	)
	return result, nil
}

// MirrorAdd sends a newly shelved record to the backend and stores the
// server id it is given. It does nothing without a session.
func (r *Reconciler) MirrorAdd(ctx context.Context, sess session.Session, externalID string) {
	r.mirrorPlacement(ctx, sess, "mirror_add", externalID)
}

// MirrorMove reflects a shelf change on the backend.
func (r *Reconciler) MirrorMove(ctx context.Context, sess session.Session, externalID string) {
	r.mirrorPlacement(ctx, sess, "mirror_move", externalID)
}

// MirrorProgress reflects a progress change on the backend.
func (r *Reconciler) MirrorProgress(ctx context.Context, sess session.Session, externalID string) {
	r.mirrorPlacement(ctx, sess, "mirror_progress", externalID)
}

// MirrorRemove deletes the backend copy of a record already removed locally.
// Records that never reached the backend need no call.
func (r *Reconciler) MirrorRemove(ctx context.Context, sess session.Session, removed shelf.BookRecord) {
	if !sess.Valid() || removed.ServerID == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	err := r.remote.DeleteOne(ctx, sess, *removed.ServerID)
	r.mirrored("mirror_remove", removed.ExternalID, start, err)
}

// mirrorPlacement pushes the record's current shelf and progress. Synced
// records are updated in place; local-only ones are created.
func (r *Reconciler) mirrorPlacement(ctx context.Context, sess session.Session, op, externalID string) {
	if !sess.Valid() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	loc, ok := r.store.Locate(externalID)
	if !ok {
		return
	}
	start := time.Now()
	var err error
	if loc.Record.Synced() {
		err = r.remote.UpdateOne(ctx, sess, *loc.Record.ServerID, loc.Shelf, loc.Record.Progress)
	} else {
		var sid int64
		sid, err = r.remote.UpsertOne(ctx, sess, loc.Record, loc.Shelf)
		if err == nil {
			_, err = r.store.SetServerIDs(map[string]int64{externalID: sid})
		}
	}
	r.mirrored(op, externalID, start, err)
}

func (r *Reconciler) mirrored(op, externalID string, start time.Time, err error) {
	r.metrics.observe(op, start, err)
	if err != nil {
		r.status.Notice(SyncFailedNotice)
		r.fail(op, err, zap.String("external_id", externalID))
		return
	}
	r.status.Notice("")
	r.status.Update(&state.SyncResult{Op: op, Pending: len(r.store.Pending())}, nil)
}

func (r *Reconciler) fail(op string, err error, fields ...zap.Field) {
	r.status.Update(nil, err)
	fields = append(fields,
		zap.String("op", op),
		zap.String("error_type", backend.ErrorLabel(err)),
		zap.Error(err),
	)
	r.logger.Warn("sync failed", fields...)
}
