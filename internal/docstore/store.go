package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vellari/cleanops-api/internal/models"
	"github.com/vellari/cleanops-api/pkg/atomicfile"
	"github.com/vellari/cleanops-api/pkg/jobs"
)

// ErrRemoteMiss signals the remote backend holds no copy of a document.
var ErrRemoteMiss = errors.New("document not found in remote store")

// RemoteStore mirrors documents off-host for disaster recovery. Production
// uses Redis; tests use an in-memory map.
type RemoteStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	Del(ctx context.Context, key string) error
}

// Replicator receives the detached remote-write jobs.
type Replicator interface {
	Enqueue(job jobs.Job) error
}

// readOutcome is the tri-state result of one read strategy.
type readOutcome int

const (
	outcomeFound readOutcome = iota
	outcomeNotFound
	outcomeInvalid
)

type readStrategy struct {
	name string
	read func(ctx context.Context, kind Kind, workDate string) ([]byte, readOutcome)
}

// ReplicatePayload is the body of a queued remote write.
type ReplicatePayload struct {
	Key  string
	Data []byte
}

// Store adapts the three per-date documents onto a local filesystem backend
// and a remote mirror. Reads prefer local and fall back to remote with a
// local cache-fill; writes are locally synchronous and remotely asynchronous.
type Store struct {
	localDir string
	remote   RemoteStore
	queue    Replicator
	logger   *zap.Logger
	now      func() time.Time

	fallbackReads func(kind Kind) // observability hook, optional
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the timestamp source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithQueue routes remote writes through a job queue instead of raw goroutines.
func WithQueue(q Replicator) Option {
	return func(s *Store) { s.queue = q }
}

// WithFallbackObserver registers a callback fired whenever a read is served
// by the remote backend.
func WithFallbackObserver(fn func(kind Kind)) Option {
	return func(s *Store) { s.fallbackReads = fn }
}

// New constructs a document store rooted at localDir.
func New(localDir string, remote RemoteStore, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		localDir: localDir,
		remote:   remote,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AttachQueue wires the replication queue after construction. The queue's
// handler comes from this store, so the two cannot be built in one step.
func (s *Store) AttachQueue(q Replicator) {
	s.queue = q
}

// ReplicationHandler returns the job handler that performs queued remote writes.
func (s *Store) ReplicationHandler() jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(ReplicatePayload)
		if !ok {
			return fmt.Errorf("unexpected replication payload type %T", job.Payload)
		}
		if s.remote == nil {
			return nil
		}
		if err := s.remote.Set(ctx, payload.Key, payload.Data); err != nil {
			return fmt.Errorf("remote write %s: %w", payload.Key, err)
		}
		return nil
	}
}

// LoadTimeline returns the canonical timeline for a WorkDate. When neither
// backend yields a valid document it synthesizes an empty recovery timeline;
// it never fails on the read path.
func (s *Store) LoadTimeline(ctx context.Context, workDate string) *models.Timeline {
	raw, ok := s.load(ctx, KindTimeline, workDate)
	if !ok {
		s.logger.Warn("no valid timeline found, returning recovery document",
			zap.String("work_date", workDate))
		return models.NewRecoveryTimeline(workDate)
	}
	var doc models.Timeline
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.NewRecoveryTimeline(workDate)
	}
	if doc.CleanersAssignments == nil {
		doc.CleanersAssignments = []models.CleanerAssignment{}
	}
	return &doc
}

// LoadContainers returns the leftover containers document, or nil when no
// valid copy exists. Absence is not an error: the pipeline treats it as "no
// leftovers".
func (s *Store) LoadContainers(ctx context.Context, workDate string) *models.ContainersDocument {
	raw, ok := s.load(ctx, KindContainers, workDate)
	if !ok {
		return nil
	}
	var doc models.ContainersDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	return &doc
}

// LoadSelectedCleaners returns the selected-cleaners document, or nil when
// no valid copy exists.
func (s *Store) LoadSelectedCleaners(ctx context.Context, workDate string) *models.SelectedCleanersDocument {
	raw, ok := s.load(ctx, KindSelectedCleaners, workDate)
	if !ok {
		return nil
	}
	var doc models.SelectedCleanersDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	return &doc
}

// SaveTimeline stamps and persists the timeline: local write is synchronous
// and decides success, the remote mirror is written asynchronously.
func (s *Store) SaveTimeline(ctx context.Context, workDate string, doc *models.Timeline) error {
	doc.Stamp(workDate, s.now())
	return s.save(ctx, KindTimeline, workDate, doc)
}

// SaveContainers stamps and persists the containers document.
func (s *Store) SaveContainers(ctx context.Context, workDate string, doc *models.ContainersDocument) error {
	if doc.Metadata == nil {
		doc.Metadata = &models.DocumentMetadata{}
	}
	doc.Metadata.Date = workDate
	doc.Metadata.LastUpdated = s.now()
	return s.save(ctx, KindContainers, workDate, doc)
}

// SaveSelectedCleaners stamps and persists the selected-cleaners document.
func (s *Store) SaveSelectedCleaners(ctx context.Context, workDate string, doc *models.SelectedCleanersDocument) error {
	if doc.Metadata == nil {
		doc.Metadata = &models.DocumentMetadata{}
	}
	doc.Metadata.Date = workDate
	doc.Metadata.LastUpdated = s.now()
	return s.save(ctx, KindSelectedCleaners, workDate, doc)
}

// Delete removes a document from both backends. Remote failures are logged,
// not surfaced, matching the write path's availability trade-off.
func (s *Store) Delete(ctx context.Context, kind Kind, workDate string) error {
	path := s.localPath(kind, workDate)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete local %s document: %w", kind, err)
	}
	if s.remote != nil {
		if err := s.remote.Del(ctx, s.remoteKey(kind, workDate)); err != nil {
			s.logger.Warn("remote delete failed",
				zap.String("kind", string(kind)), zap.String("work_date", workDate), zap.Error(err))
		}
	}
	return nil
}

// load walks the ordered strategy chain: local first, then remote with a
// cache-fill back to local.
func (s *Store) load(ctx context.Context, kind Kind, workDate string) ([]byte, bool) {
	for _, strategy := range s.strategies() {
		raw, outcome := strategy.read(ctx, kind, workDate)
		switch outcome {
		case outcomeFound:
			return raw, true
		case outcomeInvalid:
			s.logger.Warn("discarding invalid document copy",
				zap.String("strategy", strategy.name),
				zap.String("kind", string(kind)),
				zap.String("work_date", workDate))
		}
	}
	return nil, false
}

func (s *Store) strategies() []readStrategy {
	return []readStrategy{
		{name: "local", read: s.readLocal},
		{name: "remote", read: s.readRemote},
	}
}

func (s *Store) readLocal(_ context.Context, kind Kind, workDate string) ([]byte, readOutcome) {
	raw, err := os.ReadFile(s.localPath(kind, workDate))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, outcomeNotFound
		}
		s.logger.Warn("local read failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil, outcomeInvalid
	}
	if !kind.validate(raw, workDate) {
		return nil, outcomeInvalid
	}
	return raw, outcomeFound
}

func (s *Store) readRemote(ctx context.Context, kind Kind, workDate string) ([]byte, readOutcome) {
	if s.remote == nil {
		return nil, outcomeNotFound
	}
	raw, err := s.remote.Get(ctx, s.remoteKey(kind, workDate))
	if err != nil {
		if errors.Is(err, ErrRemoteMiss) {
			return nil, outcomeNotFound
		}
		s.logger.Warn("remote read failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil, outcomeInvalid
	}
	if !kind.validate(raw, workDate) {
		return nil, outcomeInvalid
	}
	if s.fallbackReads != nil {
		s.fallbackReads(kind)
	}
	// Cache-fill: repopulate the local copy so the next read stays local.
	if err := atomicfile.WriteFile(s.localPath(kind, workDate), raw, 0o644); err != nil {
		s.logger.Warn("cache-fill write failed", zap.String("kind", string(kind)), zap.Error(err))
	}
	return raw, outcomeFound
}

func (s *Store) save(ctx context.Context, kind Kind, workDate string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", kind, err)
	}
	if err := atomicfile.WriteFile(s.localPath(kind, workDate), raw, 0o644); err != nil {
		return fmt.Errorf("write local %s document: %w", kind, err)
	}
	s.replicate(ctx, s.remoteKey(kind, workDate), raw)
	return nil
}

// replicate schedules the best-effort remote write. Failure never affects the
// caller; it lands in the queue's retry/log path.
func (s *Store) replicate(ctx context.Context, key string, data []byte) {
	if s.remote == nil {
		return
	}
	if s.queue != nil {
		job := jobs.Job{ID: uuid.NewString(), Type: "replicate", Payload: ReplicatePayload{Key: key, Data: data}}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue remote replication", zap.String("key", key), zap.Error(err))
		}
		return
	}
	go func() {
		if err := s.remote.Set(context.Background(), key, data); err != nil {
			s.logger.Warn("remote replication failed", zap.String("key", key), zap.Error(err))
		}
	}()
}

func (s *Store) localPath(kind Kind, workDate string) string {
	return filepath.Join(s.localDir, workDate, kind.Filename())
}

func (s *Store) remoteKey(kind Kind, workDate string) string {
	return fmt.Sprintf("cleanops:documents:%s:%s", kind, workDate)
}
