// Package session owns the mutable editing state for one open project. A
// session is the single writer: every edit goes through it under a mutex, a
// file lock keeps other processes out of the project, and render submissions
// work from immutable snapshots so an in-flight render never sees a
// half-applied edit.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"montage/internal/logging"
	"montage/internal/project"
	"montage/internal/render"
	"montage/internal/timecode"
	"montage/internal/timeline"
)

// gestureInterval caps how often interactive gesture proposals are applied.
// Proposals arriving faster than this replace the pending one instead of
// stacking, so a drag at display rate costs at most ~20 edits per second.
const gestureInterval = 50 * time.Millisecond

// ErrLocked indicates another session holds the project.
var ErrLocked = errors.New("project is locked by another session")

// ErrGestureActive indicates a second gesture was started before the first
// ended.
var ErrGestureActive = errors.New("another gesture is in progress")

// ErrUnknownGesture indicates a proposal carried a stale or foreign token.
var ErrUnknownGesture = errors.New("unknown gesture token")

// EditFunc is one edit applied to the timeline under the session lock.
type EditFunc func(*timeline.Timeline) error

// Option adjusts a session at open time.
type Option func(*Session)

// WithSnapThreshold overrides the timeline's edge-attraction distance, in
// seconds.
func WithSnapThreshold(seconds float64) Option {
	return func(s *Session) {
		s.tl.SetSnapThreshold(seconds)
	}
}

// Session is the single-writer editing handle for one project.
type Session struct {
	path   string
	doc    *project.Document
	lock   *flock.Flock
	logger *slog.Logger

	mu      sync.Mutex
	tl      *timeline.Timeline
	gesture *gestureState
}

type gestureState struct {
	token       string
	pending     EditFunc
	lastApplied time.Time
}

// Open loads the project document at path and acquires its lock.
func Open(path string, logger *slog.Logger, opts ...Option) (*Session, error) {
	doc, err := project.Load(path)
	if err != nil {
		return nil, err
	}
	tl, err := doc.Timeline()
	if err != nil {
		return nil, err
	}
	return newSession(path, doc, tl, logger, opts...)
}

// Create initializes a new empty project at path and opens a session on it.
func Create(path, name string, fps float64, profile render.Profile, opts ...Option) (*Session, error) {
	rate, err := timecode.NewFrameRate(fps)
	if err != nil {
		return nil, err
	}
	tl := timeline.New(rate)
	doc := project.FromTimeline(name, tl, profile)
	if err := project.Save(path, doc); err != nil {
		return nil, err
	}
	return newSession(path, doc, tl, nil, opts...)
}

func newSession(path string, doc *project.Document, tl *timeline.Timeline, logger *slog.Logger, opts ...Option) (*Session, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	lock := flock.New(path + ".lock")
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire project lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	s := &Session{
		path:   path,
		doc:    doc,
		lock:   lock,
		logger: logging.NewComponentLogger(logger, "session"),
		tl:     tl,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the project lock. Unsaved edits are discarded.
func (s *Session) Close() error {
	if s.lock == nil {
		return nil
	}
	return s.lock.Unlock()
}

// Name returns the project name.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Name
}

// Profile returns the project's output profile.
func (s *Session) Profile() render.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Profile
}

// Edit applies one edit atomically. Failed edits leave the timeline
// untouched only if the edit function itself is atomic; the timeline's own
// operations guarantee that.
func (s *Session) Edit(fn EditFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.tl)
}

// Snapshot returns a deep copy of the current timeline and the version it was
// taken at. The copy never changes afterwards, so it is safe to compile and
// render from concurrently with further edits.
func (s *Session) Snapshot() (*timeline.Timeline, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tl.Clone(), s.tl.Version()
}

// Version returns the current edit version.
func (s *Session) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tl.Version()
}

// BeginGesture starts an interactive gesture and returns its token. Only one
// gesture may be active; a second Begin fails until the first ends.
func (s *Session) BeginGesture() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gesture != nil {
		return "", ErrGestureActive
	}
	token := uuid.NewString()
	s.gesture = &gestureState{token: token}
	return token, nil
}

// Propose submits the next state of an active gesture. Proposals inside the
// coalescing window replace the pending edit; at most one edit per interval
// reaches the timeline. The latest proposal is never lost: it is applied on
// the next interval boundary or at EndGesture.
func (s *Session) Propose(token string, fn EditFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.gesture
	if g == nil || g.token != token {
		return ErrUnknownGesture
	}
	g.pending = fn
	if time.Since(g.lastApplied) < gestureInterval {
		return nil
	}
	return s.applyPendingLocked(g)
}

// EndGesture applies any pending proposal and releases the gesture.
func (s *Session) EndGesture(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.gesture
	if g == nil || g.token != token {
		return ErrUnknownGesture
	}
	err := s.applyPendingLocked(g)
	s.gesture = nil
	return err
}

func (s *Session) applyPendingLocked(g *gestureState) error {
	if g.pending == nil {
		return nil
	}
	fn := g.pending
	g.pending = nil
	g.lastApplied = time.Now()
	return fn(s.tl)
}

// Save persists the current timeline back to the project file.
func (s *Session) Save() error {
	s.mu.Lock()
	doc := project.FromTimeline(s.doc.Name, s.tl, s.doc.Profile)
	s.mu.Unlock()

	if err := project.Save(s.path, doc); err != nil {
		return err
	}

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	s.logger.Info("project saved",
		logging.String("path", s.path),
		logging.Int64("version", doc.Version))
	return nil
}
