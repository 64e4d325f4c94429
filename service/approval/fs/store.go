// Package fs provides a file backed approval store: one JSON document per
// request, replaced atomically on every write.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/planner/internal/idgen"
	"github.com/viant/planner/internal/logging"
	"github.com/viant/planner/service/approval"
	"go.uber.org/zap"
)

const (
	recordExt = ".json"
	tempExt   = ".tmp"

	DefaultLockWait     = 5 * time.Second
	DefaultStaleLockAge = 30 * time.Second
)

// Store implements approval.Store on top of afs. Writes go to a temporary
// file that is then moved over the record, so readers never observe a
// partially written request. Updates of one id are serialized by a mutex
// within the process and by a lock file across processes.
type Store struct {
	dir          string
	fs           afs.Service
	mu           sync.Mutex
	lockWait     time.Duration
	staleLockAge time.Duration
	logger       *zap.Logger
}

var _ approval.Store = (*Store)(nil)

// Option customises a Store.
type Option func(s *Store)

// WithLockWait bounds how long an update waits for another writer.
func WithLockWait(d time.Duration) Option {
	return func(s *Store) { s.lockWait = d }
}

// WithStaleLockAge sets the age after which a left over lock file is reclaimed.
func WithStaleLockAge(d time.Duration) Option {
	return func(s *Store) { s.staleLockAge = d }
}

// WithLogger sets the store logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a store rooted at dir, creating the directory when needed.
func New(dir string, options ...Option) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("approval directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve approval directory %s: %w", dir, err)
	}
	ret := &Store{
		dir:          abs,
		fs:           afs.New(),
		lockWait:     DefaultLockWait,
		staleLockAge: DefaultStaleLockAge,
	}
	for _, option := range options {
		option(ret)
	}
	ret.logger = logging.OrNop(ret.logger)

	ctx := context.Background()
	exists, _ := ret.fs.Exists(ctx, abs)
	if !exists {
		if err := ret.fs.Create(ctx, abs, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create approval directory: %w", err)
		}
	}
	return ret, nil
}

// Dir returns the absolute store directory.
func (s *Store) Dir() string { return s.dir }

// Create persists a new request.
func (s *Store) Create(ctx context.Context, r *approval.Request) error {
	if r == nil || !validID(r.ID) {
		return approval.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock(ctx, r.ID)
	if err != nil {
		return err
	}
	defer unlock()

	exists, err := s.fs.Exists(ctx, s.recordPath(r.ID))
	if err != nil {
		return fmt.Errorf("failed to check if request exists: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", approval.ErrDuplicateID, r.ID)
	}
	return s.write(ctx, r)
}

// Load reads a request from disk. An id that cannot name a record file is
// reported as not found.
func (s *Store) Load(ctx context.Context, id string) (*approval.Request, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %w: %q", approval.ErrNotFound, approval.ErrInvalidID, id)
	}
	filePath := s.recordPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check if request exists: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", approval.ErrNotFound, id)
	}
	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}
	return decode(data, filePath)
}

// List reads every request in the directory. Unreadable files are logged
// and skipped.
func (s *Store) List(ctx context.Context) ([]*approval.Request, error) {
	objects, err := s.fs.List(ctx, s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list request files: %w", err)
	}
	var ret []*approval.Request
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), recordExt) {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			s.logger.Warn("failed to read request file", zap.String("url", object.URL()), zap.Error(err))
			continue
		}
		r, err := decode(data, object.URL())
		if err != nil {
			s.logger.Warn("failed to decode request file", zap.String("url", object.URL()), zap.Error(err))
			continue
		}
		ret = append(ret, r)
	}
	return ret, nil
}

// Update re-reads the request under lock, applies mutate and writes the
// result back.
func (s *Store) Update(ctx context.Context, id string, mutate approval.Mutation) (*approval.Request, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %w: %q", approval.ErrNotFound, approval.ErrInvalidID, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = mutate(current); err != nil {
		return nil, err
	}
	if err = s.write(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *Store) write(ctx context.Context, r *approval.Request) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	tempPath := filepath.Join(s.dir, "."+r.ID+"."+idgen.New()+tempExt)
	if err = s.fs.Upload(ctx, tempPath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write request file %s: %w", tempPath, err)
	}
	// afs Move removes the destination before renaming; os.Rename within one
	// directory replaces the record in a single step.
	filePath := s.recordPath(r.ID)
	if err = os.Rename(tempPath, filePath); err != nil {
		_ = s.fs.Delete(ctx, tempPath)
		return fmt.Errorf("failed to replace request file %s: %w", filePath, err)
	}
	return nil
}

// validID rejects ids that would escape the store directory.
func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

func (s *Store) recordPath(id string) string {
	return filepath.Join(s.dir, id+recordExt)
}

func decode(data []byte, location string) (*approval.Request, error) {
	ret := &approval.Request{}
	if err := json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request %s: %w", location, err)
	}
	return ret, nil
}
