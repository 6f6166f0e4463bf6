package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/duomind/backend/internal/core/ports"
	"github.com/duomind/backend/internal/infrastructure/db"
	"github.com/duomind/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	// A single connection keeps every session on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.RunMigrations(database))
	return database
}

// memStore is an in-memory ports.FileStore for tests.
type memStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{files: make(map[string][]byte)}
}

func (s *memStore) Save(ctx context.Context, name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.files[name] = data
	s.mu.Unlock()
	return nil
}

func (s *memStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	s.mu.Lock()
	data, ok := s.files[name]
	s.mu.Unlock()
	if !ok {
		return nil, errors.New("file not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	_, ok := s.files[name]
	s.mu.Unlock()
	return ok, nil
}

func (s *memStore) Remove(ctx context.Context, name string) error {
	s.mu.Lock()
	delete(s.files, name)
	s.mu.Unlock()
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// stubCodec records what it was asked to read and write.
type stubCodec struct {
	mu          sync.Mutex
	rows        [][]string
	writtenRows [][][]string
	writeErr    error
	failAtWrite int // 1-based write call to fail on; 0 means never
	writes      int
}

func (c *stubCodec) ReadRows(r io.Reader) ([][]string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	return c.rows, nil
}

func (c *stubCodec) WriteRows(w io.Writer, rows [][]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
	if c.failAtWrite > 0 && c.writes >= c.failAtWrite {
		if c.writeErr != nil {
			return c.writeErr
		}
		return errors.New("codec write failed")
	}
	c.writtenRows = append(c.writtenRows, rows)
	_, err := w.Write([]byte("workbook"))
	return err
}

var _ ports.TabularCodec = (*stubCodec)(nil)

func newTestTaskService(t *testing.T, store ports.FileStore, maxUpload int64) (ports.TaskService, *gorm.DB) {
	t.Helper()
	database := newTestDB(t)
	repo := db.NewTaskRepository(database, logger.NewNop())
	svc := NewTaskService(TaskServiceConfig{
		Repository:    repo,
		Store:         store,
		Logger:        logger.NewNop(),
		MaxUploadSize: maxUpload,
	})
	return svc, database
}
