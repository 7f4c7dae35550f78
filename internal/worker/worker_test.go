package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordbridge/wordbridge-api/internal/config"
	"github.com/wordbridge/wordbridge-api/internal/domain"
)

func testWorkerConfig(stopAfter int) config.WorkerConfig {
	return config.WorkerConfig{
		SweepIntervalSeconds:   300,
		StaleProcessingAgeMins: 10,
		PendingGraceSeconds:    120,
		SweepBatchSize:         10,
		MaxSweepRetries:        5,
		StopAfter:              stopAfter,
	}
}

func testQueueConfig() config.QueueConfig {
	return config.QueueConfig{
		QueueName:          "upload-jobs",
		PollTimeoutSeconds: 1,
		FallbackBufferSize: 16,
	}
}

func newTestWorker(
	t *testing.T,
	q *mockQueue,
	uploads *mockUploadStore,
	profiles *mockProfileStore,
	recStore *mockRecommendationStore,
	fetcher *mockFetcher,
	gen *mockGenerator,
	stopAfter int,
) *Worker {
	t.Helper()

	p := newTestProcessor(t, uploads, profiles, recStore, fetcher, gen)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWorker(q, p, uploads, testWorkerConfig(stopAfter), testQueueConfig(), logger)
}

func staleUpload(id int64, retryCount int) *domain.Upload {
	return &domain.Upload{
		ID:         id,
		EducatorID: 1,
		StudentID:  7,
		FilePath:   "essays/stale.txt",
		Filename:   "essay.txt",
		Status:     domain.UploadStatusPending,
		RetryCount: retryCount,
		CreatedAt:  time.Now().UTC().Add(-time.Hour),
	}
}

func TestRun_ProcessesQueuedJobsAndStops(t *testing.T) {
	t.Parallel()

	uploads := newMockUploadStore(pendingUpload(42, 7, "essays/42.txt", "essay.txt"))
	profiles := newMockProfileStore(firstTimeProfile(7, 7))
	recStore := newMockRecommendationStore()
	fetcher := &mockFetcher{files: map[string][]byte{"essays/42.txt": []byte(longSample(""))}}
	gen := &mockGenerator{results: []generatorResult{{recs: makeRecs(5, 5)}}}

	q := &mockQueue{}
	require.NoError(t, q.Enqueue(context.Background(), 42))

	w := newTestWorker(t, q, uploads, profiles, recStore, fetcher, gen, 1)

	err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{42}, q.acked)
	assert.Equal(t, []domain.UploadStatus{domain.UploadStatusProcessing, domain.UploadStatusCompleted}, uploads.statusHistory(42))

	stored, err := recStore.ListForUpload(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, stored, 5)
}

func TestRun_AcksFailedJobs(t *testing.T) {
	t.Parallel()

	// Upload 99 does not exist, so processing fails permanently.
	uploads := newMockUploadStore()
	profiles := newMockProfileStore()
	gen := &mockGenerator{results: []generatorResult{{err: errors.New("unused")}}}

	q := &mockQueue{}
	require.NoError(t, q.Enqueue(context.Background(), 99))

	w := newTestWorker(t, q, uploads, profiles, newMockRecommendationStore(), &mockFetcher{}, gen, 1)

	err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{99}, q.acked)
	assert.Equal(t, []domain.UploadStatus{domain.UploadStatusProcessing, domain.UploadStatusFailed}, uploads.statusHistory(99))
}

func TestRun_CountsProcessedAndFailedJobs(t *testing.T) {
	t.Parallel()

	uploads := newMockUploadStore(pendingUpload(42, 7, "essays/42.txt", "essay.txt"))
	profiles := newMockProfileStore(firstTimeProfile(7, 7))
	fetcher := &mockFetcher{files: map[string][]byte{"essays/42.txt": []byte(longSample(""))}}
	gen := &mockGenerator{results: []generatorResult{{recs: makeRecs(5, 5)}}}

	q := &mockQueue{}
	require.NoError(t, q.Enqueue(context.Background(), 42))
	// Upload 99 does not exist, so its job fails.
	require.NoError(t, q.Enqueue(context.Background(), 99))

	w := newTestWorker(t, q, uploads, profiles, newMockRecommendationStore(), fetcher, gen, 2)

	err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), w.ProcessedCount())
	assert.Equal(t, int64(1), w.FailedCount())
}

func TestRun_RecoversFromProcessingPanic(t *testing.T) {
	t.Parallel()

	uploads := newMockUploadStore(pendingUpload(44, 7, "essays/44.txt", "essay.txt"))
	uploads.getByIDFn = func(context.Context, int64) (*domain.Upload, error) {
		panic("corrupt upload row")
	}

	q := &mockQueue{}
	require.NoError(t, q.Enqueue(context.Background(), 44))

	w := newTestWorker(t, q, uploads, newMockProfileStore(), newMockRecommendationStore(),
		&mockFetcher{}, &mockGenerator{results: []generatorResult{{}}}, 1)

	err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{44}, q.acked)
	assert.Equal(t, int64(1), w.FailedCount())
	assert.Equal(t, []domain.UploadStatus{domain.UploadStatusProcessing, domain.UploadStatusFailed}, uploads.statusHistory(44))
}

func TestRun_ReturnsOnContextCancel(t *testing.T) {
	t.Parallel()

	uploads := newMockUploadStore()
	w := newTestWorker(t, &mockQueue{}, uploads, newMockProfileStore(),
		newMockRecommendationStore(), &mockFetcher{}, &mockGenerator{results: []generatorResult{{}}}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_StartupSweepFeedsTheLoop(t *testing.T) {
	t.Parallel()

	stale := staleUpload(61, 0)
	uploads := newMockUploadStore(stale)
	uploads.findStaleFn = func(_ context.Context, statuses []domain.UploadStatus, _ time.Duration, _ int) ([]*domain.Upload, error) {
		if statuses[0] == domain.UploadStatusPending && stale.Status == domain.UploadStatusPending && stale.RetryCount == 0 {
			return []*domain.Upload{stale}, nil
		}
		return nil, nil
	}

	profiles := newMockProfileStore(firstTimeProfile(7, 7))
	fetcher := &mockFetcher{files: map[string][]byte{"essays/stale.txt": []byte(longSample(""))}}
	gen := &mockGenerator{results: []generatorResult{{recs: makeRecs(5, 5)}}}
	recStore := newMockRecommendationStore()

	q := &mockQueue{}
	w := newTestWorker(t, q, uploads, profiles, recStore, fetcher, gen, 1)

	err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{61}, uploads.resetCalls)
	assert.Equal(t, []int64{61}, q.enqueued)
	assert.Equal(t, []int64{61}, q.acked)
}

func TestSweep_ResetsAndReenqueuesStaleUploads(t *testing.T) {
	t.Parallel()

	uploads := newMockUploadStore(staleUpload(70, 2))
	uploads.findStaleFn = func(_ context.Context, statuses []domain.UploadStatus, _ time.Duration, _ int) ([]*domain.Upload, error) {
		if statuses[0] == domain.UploadStatusPending {
			return []*domain.Upload{staleUpload(70, 2)}, nil
		}
		return nil, nil
	}

	q := &mockQueue{}
	w := newTestWorker(t, q, uploads, newMockProfileStore(), newMockRecommendationStore(),
		&mockFetcher{}, &mockGenerator{results: []generatorResult{{}}}, 0)

	w.Sweep(context.Background())

	assert.Equal(t, []int64{70}, uploads.resetCalls)
	assert.Equal(t, []int64{70}, q.enqueued)
}

func TestSweep_MarksExhaustedUploadsFailed(t *testing.T) {
	t.Parallel()

	exhausted := staleUpload(71, 5)
	uploads := newMockUploadStore(exhausted)
	uploads.findStaleFn = func(_ context.Context, statuses []domain.UploadStatus, _ time.Duration, _ int) ([]*domain.Upload, error) {
		if statuses[0] == domain.UploadStatusPending {
			return []*domain.Upload{exhausted}, nil
		}
		return nil, nil
	}

	q := &mockQueue{}
	w := newTestWorker(t, q, uploads, newMockProfileStore(), newMockRecommendationStore(),
		&mockFetcher{}, &mockGenerator{results: []generatorResult{{}}}, 0)

	w.Sweep(context.Background())

	assert.Empty(t, uploads.resetCalls)
	assert.Empty(t, q.enqueued)
	require.Equal(t, []domain.UploadStatus{domain.UploadStatusFailed}, uploads.statusHistory(71))

	last := uploads.statusUpdates[len(uploads.statusUpdates)-1]
	assert.NotNil(t, last.processedAt)
}

func TestSweep_HandlesEachUploadOncePerPass(t *testing.T) {
	t.Parallel()

	// The same upload shows up as both stale-pending and
	// stale-processing; it must be recovered only once.
	uploads := newMockUploadStore(staleUpload(72, 1))
	uploads.findStaleFn = func(_ context.Context, _ []domain.UploadStatus, _ time.Duration, _ int) ([]*domain.Upload, error) {
		return []*domain.Upload{staleUpload(72, 1)}, nil
	}

	q := &mockQueue{}
	w := newTestWorker(t, q, uploads, newMockProfileStore(), newMockRecommendationStore(),
		&mockFetcher{}, &mockGenerator{results: []generatorResult{{}}}, 0)

	w.Sweep(context.Background())

	assert.Equal(t, []int64{72}, uploads.resetCalls)
	assert.Equal(t, []int64{72}, q.enqueued)
}

func TestSweep_EnqueueFailureLeavesUploadPending(t *testing.T) {
	t.Parallel()

	uploads := newMockUploadStore(staleUpload(73, 0))
	uploads.findStaleFn = func(_ context.Context, statuses []domain.UploadStatus, _ time.Duration, _ int) ([]*domain.Upload, error) {
		if statuses[0] == domain.UploadStatusPending {
			return []*domain.Upload{staleUpload(73, 0)}, nil
		}
		return nil, nil
	}

	q := &mockQueue{enqueueErr: errors.New("broker unavailable")}
	w := newTestWorker(t, q, uploads, newMockProfileStore(), newMockRecommendationStore(),
		&mockFetcher{}, &mockGenerator{results: []generatorResult{{}}}, 0)

	w.Sweep(context.Background())

	// The reset happened, so the next sweep will find it again.
	assert.Equal(t, []int64{73}, uploads.resetCalls)
	assert.Empty(t, q.enqueued)
	assert.Equal(t, domain.UploadStatusPending, uploads.uploads[73].Status)
}

func TestSweep_FindStaleErrorIsNonFatal(t *testing.T) {
	t.Parallel()

	uploads := newMockUploadStore()
	uploads.findStaleFn = func(context.Context, []domain.UploadStatus, time.Duration, int) ([]*domain.Upload, error) {
		return nil, errors.New("database unavailable")
	}

	q := &mockQueue{}
	w := newTestWorker(t, q, uploads, newMockProfileStore(), newMockRecommendationStore(),
		&mockFetcher{}, &mockGenerator{results: []generatorResult{{}}}, 0)

	w.Sweep(context.Background())

	assert.Empty(t, q.enqueued)
}
