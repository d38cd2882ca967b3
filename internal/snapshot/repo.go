package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	kerrors "github.com/yola1107/kratos/v2/errors"
	"github.com/yola1107/kratos/v2/log"

	"github.com/yola1107/twisted/pkg/codes"
)

// ErrNotExist is returned by backends when no document is stored under an id.
var ErrNotExist = errors.New("snapshot: not exist")

// Repo is a durable whole-document store keyed by game state id.
type Repo interface {
	Put(ctx context.Context, id uuid.UUID, data []byte) error
	Get(ctx context.Context, id uuid.UUID) ([]byte, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Options struct {
	Driver        string
	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open builds the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Repo, error) {
	switch strings.ToLower(opts.Driver) {
	case "", DriverMemory:
		return NewMemoryRepo(), nil
	case DriverRedis:
		return NewRedisRepo(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	case DriverSQLite:
		return NewSQLiteRepo(ctx, opts.DSN)
	case DriverPostgres:
		return NewPostgresRepo(ctx, opts.DSN)
	default:
		return nil, fmt.Errorf("unknown snapshot driver %q", opts.Driver)
	}
}

// Store maps backend failures onto the persistence error kinds and applies a per-call timeout.
type Store struct {
	repo    Repo
	timeout time.Duration
}

func NewStore(repo Repo, timeout time.Duration) *Store {
	return &Store{repo: repo, timeout: timeout}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func failed(kind *kerrors.Error, id uuid.UUID, err error) error {
	return kind.WithCause(err).WithMetadata(map[string]string{"gameStateId": id.String()})
}

// Save writes doc as a whole, replacing any earlier version.
func (s *Store) Save(ctx context.Context, doc *Document) error {
	data, err := Encode(doc)
	if err != nil {
		return failed(codes.ErrSnapshotSaveFailed, doc.ID, err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.repo.Put(ctx, doc.ID, data); err != nil {
		log.Errorf("snapshot save failed. id=%s err=%v", doc.ID, err)
		return failed(codes.ErrSnapshotSaveFailed, doc.ID, err)
	}
	log.Debugf("snapshot saved. id=%s bytes=%d", doc.ID, len(data))
	return nil
}

func (s *Store) Load(ctx context.Context, id uuid.UUID) (*Document, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	data, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotExist) {
		return nil, codes.ErrSnapshotNotFound.WithMetadata(map[string]string{"gameStateId": id.String()})
	}
	if err != nil {
		log.Errorf("snapshot load failed. id=%s err=%v", id, err)
		return nil, failed(codes.ErrSnapshotLoadFailed, id, err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, failed(codes.ErrSnapshotLoadFailed, id, err)
	}
	return doc, nil
}

// Remove is idempotent: removing a missing document succeeds.
func (s *Store) Remove(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotExist) {
		log.Errorf("snapshot remove failed. id=%s err=%v", id, err)
		return failed(codes.ErrSnapshotRemoveFailed, id, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.repo.Close()
}

// memoryRepo 内存实现, 用于开发和测试
type memoryRepo struct {
	mu   sync.RWMutex
	docs map[uuid.UUID][]byte
}

func NewMemoryRepo() Repo {
	return &memoryRepo{docs: make(map[uuid.UUID][]byte)}
}

func (r *memoryRepo) Put(_ context.Context, id uuid.UUID, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[id] = append([]byte(nil), data...)
	return nil
}

func (r *memoryRepo) Get(_ context.Context, id uuid.UUID) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.docs[id]
	if !ok {
		return nil, ErrNotExist
	}
	return append([]byte(nil), data...), nil
}

func (r *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	return nil
}

func (r *memoryRepo) Close() error {
	return nil
}
