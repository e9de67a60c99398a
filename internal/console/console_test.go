package console

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/claimkeeper/internal/common"
	"github.com/dmitrijs2005/claimkeeper/internal/logging"
	"github.com/dmitrijs2005/claimkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/claimkeeper/internal/server/models"
	"github.com/dmitrijs2005/claimkeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	submitted  *services.SubmitRequest
	contents   []string
	reviewArgs []any
	seeded     int
	err        error
}

func (f *fakeWriter) Submit(ctx context.Context, req *services.SubmitRequest) (*models.ClaimWithAttachments, error) {
	f.submitted = req
	for _, a := range req.Attachments {
		b, _ := io.ReadAll(a.Content)
		f.contents = append(f.contents, string(b))
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.ClaimWithAttachments{Claim: models.Claim{ID: 11, EmployeeID: req.EmployeeID, Status: models.StatusPending}}, nil
}

func (f *fakeWriter) Review(ctx context.Context, id int64, status, response string) (*models.ClaimWithAttachments, error) {
	f.reviewArgs = []any{id, status, response}
	if f.err != nil {
		return nil, f.err
	}
	return &models.ClaimWithAttachments{Claim: models.Claim{ID: id, Status: models.ClaimStatus(status), Response: response}}, nil
}

func (f *fakeWriter) SeedSamples(ctx context.Context) (int, error) {
	return f.seeded, f.err
}

type fakeReader struct {
	claims []*models.ClaimWithAttachments
	byEmp  string
	err    error
}

func (f *fakeReader) GetAll(ctx context.Context) ([]*models.ClaimWithAttachments, error) {
	return f.claims, f.err
}

func (f *fakeReader) GetByID(ctx context.Context, id int64) (*models.ClaimWithAttachments, error) {
	for _, c := range f.claims {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeReader) GetByEmployee(ctx context.Context, employeeID string) ([]*models.ClaimWithAttachments, error) {
	f.byEmp = employeeID
	if err := services.ValidateEmployeeID(employeeID); err != nil {
		return nil, err
	}
	return f.claims, nil
}

func (f *fakeReader) Stats(ctx context.Context) (*services.Stats, error) {
	return &services.Stats{Total: int64(len(f.claims)), Pending: int64(len(f.claims))}, nil
}

func sampleReader() *fakeReader {
	d, _ := models.ParseDate("2024-05-15")
	return &fakeReader{claims: []*models.ClaimWithAttachments{{
		Claim: models.Claim{ID: 1, EmployeeID: "ATS0123", Date: d, Amount: decimal.RequireFromString("37500.5"), Status: models.StatusPending},
		Attachments: []models.AttachmentView{{Name: "r.pdf", URL: "http://h/uploads/1-r.pdf", Size: 3}},
	}}}
}

func run(t *testing.T, w *fakeWriter, r *fakeReader, g prometheus.Gatherer, input string) string {
	t.Helper()
	var out bytes.Buffer
	c := New(w, r, g, logging.Discard(), strings.NewReader(input), &out, false)
	require.NoError(t, c.Run(context.Background()))
	return out.String()
}

// decodeAll splits concatenated JSON documents from the console output.
func decodeAll(t *testing.T, s string) []json.RawMessage {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	var docs []json.RawMessage
	for dec.More() {
		var m json.RawMessage
		require.NoError(t, dec.Decode(&m))
		docs = append(docs, m)
	}
	return docs
}

func TestList(t *testing.T) {
	out := run(t, &fakeWriter{}, sampleReader(), nil, "list\n")

	docs := decodeAll(t, out)
	require.Len(t, docs, 1)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(docs[0], &got))
	require.Len(t, got, 1)
	assert.Equal(t, "37500.50", got[0]["amount"])
	assert.Equal(t, "2024-05-15", got[0]["date"])
	assert.Len(t, got[0]["attachments"], 1)
}

func TestListByEmployee_InvalidID(t *testing.T) {
	r := sampleReader()
	out := run(t, &fakeWriter{}, r, nil, "list ATS0000\n")

	assert.Equal(t, "ATS0000", r.byEmp)
	var ev errorView
	require.NoError(t, json.Unmarshal(decodeAll(t, out)[0], &ev))
	assert.Equal(t, 400, ev.Status)
}

func TestShow(t *testing.T) {
	out := run(t, &fakeWriter{}, sampleReader(), nil, "show 1\nshow 9\nshow abc\n")

	docs := decodeAll(t, out)
	require.Len(t, docs, 3)

	var claim map[string]any
	require.NoError(t, json.Unmarshal(docs[0], &claim))
	assert.Equal(t, float64(1), claim["id"])

	var notFound, bad errorView
	require.NoError(t, json.Unmarshal(docs[1], &notFound))
	assert.Equal(t, 404, notFound.Status)
	require.NoError(t, json.Unmarshal(docs[2], &bad))
	assert.Equal(t, 400, bad.Status)
}

func TestReview(t *testing.T) {
	w := &fakeWriter{}
	out := run(t, w, sampleReader(), nil, "review 1 approved looks good\nreview 1\n")

	assert.Equal(t, []any{int64(1), "approved", "looks good"}, w.reviewArgs)
	docs := decodeAll(t, out)
	require.Len(t, docs, 2)
	assert.Contains(t, string(docs[0]), `"response": "looks good"`)
	assert.Contains(t, string(docs[1]), "status required")
}

func TestSubmit_WithAttachments(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "taxi.txt")
	p2 := filepath.Join(dir, "hotel.txt")
	require.NoError(t, os.WriteFile(p1, []byte("12.50"), 0o600))
	require.NoError(t, os.WriteFile(p2, []byte("300"), 0o600))

	w := &fakeWriter{}
	input := strings.Join([]string{"submit", "ATS0789", "Priya Sharma", "Laptop", "1000.00", "Equipment", "for design", p1 + ", " + p2}, "\n") + "\n"
	out := run(t, w, sampleReader(), nil, input)

	require.NotNil(t, w.submitted)
	assert.Equal(t, "ATS0789", w.submitted.EmployeeID)
	assert.Equal(t, "Priya Sharma", w.submitted.EmployeeName)
	assert.Equal(t, "1000.00", w.submitted.Amount)
	require.Len(t, w.submitted.Attachments, 2)
	assert.Equal(t, "taxi.txt", w.submitted.Attachments[0].FileName)
	assert.Equal(t, int64(5), w.submitted.Attachments[0].Size)
	assert.Equal(t, []string{"12.50", "300"}, w.contents)
	assert.Contains(t, out, `"status": "pending"`)
}

func TestSubmit_MissingFile(t *testing.T) {
	w := &fakeWriter{}
	input := "submit\nATS0789\nA\nB\n1\nC\nD\n/does/not/exist.pdf\n"
	out := run(t, w, sampleReader(), nil, input)

	assert.Nil(t, w.submitted)
	assert.Contains(t, out, `"status": 400`)
}

func TestSubmit_ServiceError(t *testing.T) {
	w := &fakeWriter{err: common.ErrDuplicateSubmission}
	input := "submit\nATS0789\nA\nB\n1\nC\nD\n\n"
	out := run(t, w, sampleReader(), nil, input)

	var ev errorView
	require.NoError(t, json.Unmarshal(decodeAll(t, out)[0], &ev))
	assert.Equal(t, 400, ev.Status)
	assert.Equal(t, common.ErrDuplicateSubmission.Error(), ev.Error)
}

func TestSeedAndStats(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.IncrementSubmitted(10)
	m.IncrementFailure(metrics.ReasonDuplicate)

	out := run(t, &fakeWriter{seeded: 5}, sampleReader(), reg, "seed\nstats\n")

	docs := decodeAll(t, out)
	require.Len(t, docs, 2)
	assert.JSONEq(t, `{"inserted": 5}`, string(docs[0]))

	var sv statsView
	require.NoError(t, json.Unmarshal(docs[1], &sv))
	assert.Equal(t, int64(1), sv.Claims.Total)
	assert.Equal(t, 1.0, sv.Metrics["claims_submitted_total"])
	assert.Equal(t, 1.0, sv.Metrics[`claims_submission_failures_total{reason="duplicate"}`])
}

func TestRun_StopsOnExitAndIgnoresUnknown(t *testing.T) {
	out := run(t, &fakeWriter{}, sampleReader(), nil, "\nfrobnicate\nexit\nlist\n")

	assert.Contains(t, out, "unknown command: frobnicate")
	assert.NotContains(t, out, "ATS0123", "commands after exit must not run")
}

func TestRun_InteractivePrintsPrompt(t *testing.T) {
	var out bytes.Buffer
	c := New(&fakeWriter{}, sampleReader(), nil, logging.Discard(), strings.NewReader("help\nquit\n"), &out, true)
	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, out.String(), "claims>: ")
	assert.Contains(t, out.String(), "review <id> <status>")
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	c := New(&fakeWriter{}, sampleReader(), nil, logging.Discard(), strings.NewReader("list\n"), &out, false)
	require.NoError(t, c.Run(ctx))
	assert.Empty(t, out.String())
}

func TestIsInteractive(t *testing.T) {
	orig := isTerminal
	t.Cleanup(func() { isTerminal = orig })

	isTerminal = func(fd int) bool { return true }
	assert.True(t, IsInteractive(os.Stdin))

	isTerminal = func(fd int) bool { return false }
	assert.False(t, IsInteractive(os.Stdin))
}

func TestSplitPaths(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, splitPaths(" a ,, b c ,"))
	assert.Nil(t, splitPaths(""))
}
