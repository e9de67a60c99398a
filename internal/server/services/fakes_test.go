package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/claimkeeper/internal/common"
	"github.com/dmitrijs2005/claimkeeper/internal/dbx"
	"github.com/dmitrijs2005/claimkeeper/internal/logging"
	"github.com/dmitrijs2005/claimkeeper/internal/server/blobstore"
	"github.com/dmitrijs2005/claimkeeper/internal/server/config"
	"github.com/dmitrijs2005/claimkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/claimkeeper/internal/server/models"
	"github.com/dmitrijs2005/claimkeeper/internal/server/repositories/attachments"
	"github.com/dmitrijs2005/claimkeeper/internal/server/repositories/claims"
	"github.com/dmitrijs2005/claimkeeper/internal/server/repositories/repomanager"
	"github.com/prometheus/client_golang/prometheus"
)

// --- claims repository ---

type fakeClaimsRepo struct {
	claims.Repository

	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Claim

	hasErr    error
	insertErr error
	updateErr error
	listErr   error
	countErr  error
}

func newFakeClaimsRepo() *fakeClaimsRepo {
	return &fakeClaimsRepo{rows: map[int64]*models.Claim{}}
}

func (f *fakeClaimsRepo) HasClaimFor(ctx context.Context, employeeID string, date models.Date) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hasErr != nil {
		return false, f.hasErr
	}
	for _, c := range f.rows {
		if c.EmployeeID == employeeID && c.Date.Equal(date.Time) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeClaimsRepo) Insert(ctx context.Context, nc *models.NewClaim, date models.Date) (*models.Claim, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	return f.InsertRecord(ctx, &models.Claim{
		EmployeeID:   nc.EmployeeID,
		EmployeeName: nc.EmployeeName,
		Title:        nc.Title,
		Date:         date,
		Amount:       nc.Amount,
		Category:     nc.Category,
		Description:  nc.Description,
		Status:       models.StatusPending,
	})
}

func (f *fakeClaimsRepo) InsertRecord(ctx context.Context, c *models.Claim) (*models.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	cp := *c
	cp.ID = f.nextID
	f.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeClaimsRepo) GetByID(ctx context.Context, id int64) (*models.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *c
	return &out, nil
}

func (f *fakeClaimsRepo) List(ctx context.Context, employeeID string) ([]*models.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.Claim, 0)
	for _, c := range f.rows {
		if employeeID == "" || c.EmployeeID == employeeID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeClaimsRepo) UpdateStatus(ctx context.Context, id int64, status models.ClaimStatus, response string) (*models.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	c, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c.Status = status
	c.Response = response
	out := *c
	return &out, nil
}

func (f *fakeClaimsRepo) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return int64(len(f.rows)), nil
}

func (f *fakeClaimsRepo) CountByStatus(ctx context.Context) (map[models.ClaimStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return nil, f.countErr
	}
	out := map[models.ClaimStatus]int64{}
	for _, c := range f.rows {
		out[c.Status]++
	}
	return out, nil
}

// --- attachments repository ---

type fakeAttachmentsRepo struct {
	attachments.Repository

	mu     sync.Mutex
	nextID int64
	rows   []*models.Attachment

	// failAt makes the n-th Insert (1-based) fail; 0 never fails.
	failAt  int
	calls   int
	listErr error
}

func (f *fakeAttachmentsRepo) Insert(ctx context.Context, a *models.Attachment) (*models.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAt != 0 && f.calls == f.failAt {
		return nil, errors.New("db error: insert attachment")
	}
	f.nextID++
	a.ID = f.nextID
	cp := *a
	f.rows = append(f.rows, &cp)
	return a, nil
}

func (f *fakeAttachmentsRepo) ListByClaim(ctx context.Context, claimID int64) ([]*models.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.Attachment, 0)
	for _, a := range f.rows {
		if a.ClaimID == claimID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- repository manager ---

type fakeRepoManager struct {
	c *fakeClaimsRepo
	a *fakeAttachmentsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{c: newFakeClaimsRepo(), a: &fakeAttachmentsRepo{}}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error   { return nil }
func (m *fakeRepoManager) Claims(db dbx.DBTX) claims.Repository           { return m.c }
func (m *fakeRepoManager) Attachments(db dbx.DBTX) attachments.Repository { return m.a }

var _ repomanager.RepositoryManager = (*fakeRepoManager)(nil)

// --- blob store ---

type memBlobStore struct {
	mu      sync.Mutex
	seq     int
	max     int64
	objects map[string][]byte

	putErrAt  int
	puts      int
	deleteErr error
	deleted   []string
}

func newMemBlobStore(max int64) *memBlobStore {
	return &memBlobStore{max: max, objects: map[string][]byte{}}
}

func (s *memBlobStore) Put(ctx context.Context, name string, r io.Reader, mime string) (blobstore.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErrAt != 0 && s.puts == s.putErrAt {
		return blobstore.Blob{}, fmt.Errorf("%w: disk full", common.ErrStorage)
	}
	data, err := io.ReadAll(io.LimitReader(r, s.max+1))
	if err != nil {
		return blobstore.Blob{}, fmt.Errorf("%w: %w", common.ErrStorage, err)
	}
	if int64(len(data)) > s.max {
		return blobstore.Blob{}, common.ErrPayloadTooLarge
	}
	s.seq++
	ref := fmt.Sprintf("%d-%s", s.seq, name)
	s.objects[ref] = data
	if mime == "" {
		mime = "application/octet-stream"
	}
	return blobstore.Blob{Ref: ref, Size: int64(len(data)), MimeType: mime}, nil
}

func (s *memBlobStore) Delete(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.deleted = append(s.deleted, ref)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, ref)
	return nil
}

func (s *memBlobStore) URL(ref string) string {
	return "http://files.local/uploads/" + ref
}

func (s *memBlobStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// --- service helpers ---

var fixedNow = time.Date(2024, 6, 3, 22, 30, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{TimeZone: "UTC", MaxAttachmentSize: 1024}
}

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newClaimService(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager, blobs blobstore.Store, met *metrics.Metrics) *ClaimService {
	t.Helper()
	s, err := NewClaimService(db, rm, blobs, met, logging.Discard(), testConfig())
	if err != nil {
		t.Fatalf("NewClaimService error: %v", err)
	}
	s.now = func() time.Time { return fixedNow }
	return s
}

func validRequest(uploads ...models.Upload) *SubmitRequest {
	return &SubmitRequest{
		EmployeeID:   "ATS0789",
		EmployeeName: "Priya Sharma",
		Title:        "Client visit",
		Amount:       "1000.00",
		Category:     "Travel",
		Description:  "Cab to the client office",
		Attachments:  uploads,
	}
}
