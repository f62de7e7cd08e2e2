package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/kassa-pos/kassa/internal/jobs"
	"github.com/kassa-pos/kassa/internal/shared"
)

type recordingAudit struct {
	logs []shared.AuditLog
	err  error
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	if a.err != nil {
		return a.err
	}
	a.logs = append(a.logs, log)
	return nil
}

type stubResyncer struct {
	changed int64
	err     error
	calls   int
}

func (s *stubResyncer) ResyncProductQuantities(ctx context.Context) (int64, error) {
	s.calls++
	return s.changed, s.err
}

type execRecorder struct {
	sql  string
	args []any
}

func (e *execRecorder) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.sql, e.args = sql, args
	return pgconn.NewCommandTag("DELETE 3"), nil
}

func (e *execRecorder) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (e *execRecorder) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func TestStockLowJobRecordsAudit(t *testing.T) {
	audit := &recordingAudit{}
	job := NewStockLowJob(audit, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewStockLowTask(StockLowPayload{BranchID: 1, ProductID: 7, Quantity: decimal.NewFromInt(2), Limit: decimal.NewFromInt(5)})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, audit.logs, 1)
	require.Equal(t, TaskStockLow, audit.logs[0].Action)
	require.Equal(t, "1:7", audit.logs[0].EntityID)
	require.Equal(t, "2", audit.logs[0].Meta["quantity"])
}

func TestStockLowJobSkipsRetryOnBadPayload(t *testing.T) {
	job := NewStockLowJob(&recordingAudit{}, nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskStockLow, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestStockLowJobRetriesOnAuditFailure(t *testing.T) {
	job := NewStockLowJob(&recordingAudit{err: errors.New("db down")}, nil, nil)
	task, err := NewStockLowTask(StockLowPayload{BranchID: 1, ProductID: 7})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestQuantityResyncJob(t *testing.T) {
	repo := &stubResyncer{changed: 4}
	job := NewQuantityResyncJob(repo, nil, nil)
	task, err := NewQuantityResyncTask(time.Now())
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 1, repo.calls)

	repo.err = errors.New("boom")
	require.ErrorIs(t, job.Handle(context.Background(), task), repo.err)
}

func TestIdempotencyCleanupUsesRetention(t *testing.T) {
	db := &execRecorder{}
	job := NewIdempotencyCleanupJob(db, shared.NewIdempotencyStore(), nil, nil)
	task, err := NewIdempotencyCleanupTask(48 * time.Hour)
	require.NoError(t, err)

	before := time.Now()
	require.NoError(t, job.Handle(context.Background(), task))
	require.Contains(t, db.sql, "DELETE FROM idempotency_keys")
	require.Len(t, db.args, 1)
	cutoff, ok := db.args[0].(time.Time)
	require.True(t, ok)
	require.WithinDuration(t, before.Add(-48*time.Hour), cutoff, time.Minute)
}

func TestIdempotencyCleanupDefaultsToSevenDays(t *testing.T) {
	db := &execRecorder{}
	job := NewIdempotencyCleanupJob(db, shared.NewIdempotencyStore(), nil, nil)

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil)))
	cutoff := db.args[0].(time.Time)
	require.WithinDuration(t, time.Now().Add(-DefaultIdempotencyRetention), cutoff, time.Minute)
}

func TestCleanupTaskPayload(t *testing.T) {
	task, err := NewIdempotencyCleanupTask(DefaultIdempotencyRetention)
	require.NoError(t, err)
	var payload IdempotencyCleanupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, 168, payload.RetentionHours)
}

func TestLowStockTaskIDIsPerBranchProduct(t *testing.T) {
	require.Equal(t, "stock-low:1:7", lowStockTaskID(1, 7))
	require.NotEqual(t, lowStockTaskID(1, 7), lowStockTaskID(7, 1))
}

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(nil, "", nil).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var body queueHealth
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, QueueDefault, body.Queue)
}
