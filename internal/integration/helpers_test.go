package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tripper-app/tripper/internal/access"
	"github.com/tripper-app/tripper/internal/attachments"
	"github.com/tripper-app/tripper/internal/categories"
	"github.com/tripper-app/tripper/internal/locations"
	"github.com/tripper-app/tripper/internal/members"
	"github.com/tripper-app/tripper/internal/trips"
)

// memBlobStore is an in-memory stand-in for the S3 store
type memBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (m *memBlobStore) Put(_ context.Context, body io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	fileID := uuid.NewString()
	m.blobs[fileID] = data
	return fileID, nil
}

func (m *memBlobStore) Get(_ context.Context, fileID string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[fileID]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", fileID)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBlobStore) Delete(_ context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, fileID)
	return nil
}

func (m *memBlobStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

// services bundles every wired service over one test database
type services struct {
	pool        *pgxpool.Pool
	blobs       *memBlobStore
	trips       *trips.Service
	locations   *locations.Service
	categories  *categories.Service
	members     *members.Service
	attachments *attachments.Service
}

func newServices(pool *pgxpool.Pool) *services {
	checker := access.NewChecker(pool)
	blobs := newMemBlobStore()

	attachmentSvc := attachments.NewService(pool, checker, blobs)
	locationSvc := locations.NewService(pool, checker, attachmentSvc, blobs)

	return &services{
		pool:        pool,
		blobs:       blobs,
		trips:       trips.NewService(pool, checker, locationSvc),
		locations:   locationSvc,
		categories:  categories.NewService(pool, checker),
		members:     members.NewService(pool, checker),
		attachments: attachmentSvc,
	}
}

func createUser(t *testing.T, pool *pgxpool.Pool, email string) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	err := pool.QueryRow(context.Background(), `
		INSERT INTO users (email, password_hash)
		VALUES ($1, 'x')
		RETURNING id
	`, email).Scan(&id)
	if err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return id
}

func countRows(t *testing.T, pool *pgxpool.Pool, table, column string, value any) int {
	t.Helper()

	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = $1", table, column)
	if err := pool.QueryRow(context.Background(), query, value).Scan(&count); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return count
}

func strPtr(s string) *string { return &s }
