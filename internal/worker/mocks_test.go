package worker

import (
	"context"
	"sync"
	"time"

	"github.com/wordbridge/wordbridge-api/internal/domain"
	"github.com/wordbridge/wordbridge-api/internal/queue"
	"github.com/wordbridge/wordbridge-api/internal/store"
)

// mockUploadStore implements store.UploadStore with overridable
// functions and an in-memory record of status changes.
type mockUploadStore struct {
	mu      sync.Mutex
	uploads map[int64]*domain.Upload

	statusUpdates []statusUpdate
	resetCalls    []int64

	getByIDFn       func(ctx context.Context, id int64) (*domain.Upload, error)
	updateStatusFn  func(ctx context.Context, id int64, status domain.UploadStatus, processedAt *time.Time) error
	findStaleFn     func(ctx context.Context, statuses []domain.UploadStatus, olderThan time.Duration, limit int) ([]*domain.Upload, error)
	resetForRetryFn func(ctx context.Context, id int64) (int, error)
}

type statusUpdate struct {
	id          int64
	status      domain.UploadStatus
	processedAt *time.Time
}

func newMockUploadStore(uploads ...*domain.Upload) *mockUploadStore {
	m := &mockUploadStore{uploads: make(map[int64]*domain.Upload)}
	for _, u := range uploads {
		m.uploads[u.ID] = u
	}
	return m
}

func (m *mockUploadStore) GetByID(ctx context.Context, id int64) (*domain.Upload, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	upload, ok := m.uploads[id]
	if !ok {
		return nil, store.ErrUploadNotFound
	}
	copied := *upload
	return &copied, nil
}

func (m *mockUploadStore) UpdateStatus(
	ctx context.Context,
	id int64,
	status domain.UploadStatus,
	processedAt *time.Time,
) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status, processedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusUpdates = append(m.statusUpdates, statusUpdate{id: id, status: status, processedAt: processedAt})
	if upload, ok := m.uploads[id]; ok {
		upload.Status = status
		upload.ProcessedAt = processedAt
	}
	return nil
}

func (m *mockUploadStore) FindStale(
	ctx context.Context,
	statuses []domain.UploadStatus,
	olderThan time.Duration,
	limit int,
) ([]*domain.Upload, error) {
	if m.findStaleFn != nil {
		return m.findStaleFn(ctx, statuses, olderThan, limit)
	}
	return nil, nil
}

func (m *mockUploadStore) ResetForRetry(ctx context.Context, id int64) (int, error) {
	if m.resetForRetryFn != nil {
		return m.resetForRetryFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetCalls = append(m.resetCalls, id)
	upload, ok := m.uploads[id]
	if !ok {
		return 0, store.ErrUploadNotFound
	}
	upload.Status = domain.UploadStatusPending
	upload.RetryCount++
	upload.ProcessedAt = nil
	return upload.RetryCount, nil
}

func (m *mockUploadStore) statusHistory(id int64) []domain.UploadStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	var history []domain.UploadStatus
	for _, update := range m.statusUpdates {
		if update.id == id {
			history = append(history, update.status)
		}
	}
	return history
}

// mockProfileStore implements store.StudentProfileStore.
type mockProfileStore struct {
	mu       sync.Mutex
	profiles map[int64]*domain.StudentProfile
	baseline []domain.BaselineWord

	levelUpdates  map[int64]int
	analyzedCalls []int64

	getByIDFn func(ctx context.Context, id int64) (*domain.StudentProfile, error)
}

func newMockProfileStore(profiles ...*domain.StudentProfile) *mockProfileStore {
	m := &mockProfileStore{
		profiles:     make(map[int64]*domain.StudentProfile),
		levelUpdates: make(map[int64]int),
	}
	for _, p := range profiles {
		m.profiles[p.ID] = p
	}
	return m
}

func (m *mockProfileStore) GetByID(ctx context.Context, id int64) (*domain.StudentProfile, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[id]
	if !ok {
		return nil, store.ErrStudentProfileNotFound
	}
	copied := *profile
	return &copied, nil
}

func (m *mockProfileStore) UpdateVocabularyLevel(ctx context.Context, id int64, level int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levelUpdates[id] = level
	if profile, ok := m.profiles[id]; ok {
		profile.VocabularyLevel = &level
	}
	return nil
}

func (m *mockProfileStore) MarkAnalyzed(ctx context.Context, id int64, analyzedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyzedCalls = append(m.analyzedCalls, id)
	if profile, ok := m.profiles[id]; ok {
		profile.LastAnalyzedAt = &analyzedAt
	}
	return nil
}

func (m *mockProfileStore) LoadBaselineWords(ctx context.Context, gradeLevel, limit int) ([]domain.BaselineWord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.baseline) > limit {
		return m.baseline[:limit], nil
	}
	return m.baseline, nil
}

// mockRecommendationStore implements store.RecommendationStore.
type mockRecommendationStore struct {
	mu       sync.Mutex
	byUpload map[int64][]domain.Recommendation

	replaceCalls int
	replaceFn    func(ctx context.Context, studentID, uploadID int64, recs []domain.Recommendation) error
}

func newMockRecommendationStore() *mockRecommendationStore {
	return &mockRecommendationStore{byUpload: make(map[int64][]domain.Recommendation)}
}

func (m *mockRecommendationStore) ReplaceForUpload(
	ctx context.Context,
	studentID, uploadID int64,
	recs []domain.Recommendation,
) error {
	if m.replaceFn != nil {
		return m.replaceFn(ctx, studentID, uploadID, recs)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceCalls++
	stored := make([]domain.Recommendation, len(recs))
	copy(stored, recs)
	m.byUpload[uploadID] = stored
	return nil
}

func (m *mockRecommendationStore) ListForUpload(ctx context.Context, uploadID int64) ([]domain.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byUpload[uploadID], nil
}

// mockFetcher implements gcs.Fetcher.
type mockFetcher struct {
	files map[string][]byte
	err   error
}

func (m *mockFetcher) Fetch(_ context.Context, location string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.files[location]
	if !ok {
		return nil, store.ErrNotFound
	}
	return data, nil
}

// mockGenerator implements generation.Generator with a scriptable
// sequence of results: call n returns results[n] (the last entry
// repeats).
type mockGenerator struct {
	mu      sync.Mutex
	calls   int
	samples []string

	results []generatorResult
}

type generatorResult struct {
	recs []domain.Recommendation
	err  error
}

func (m *mockGenerator) Generate(
	_ context.Context,
	_ *domain.StudentProfile,
	writingSample string,
	_ []domain.BaselineWord,
	_ int,
) ([]domain.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, writingSample)
	idx := m.calls
	m.calls++
	if idx >= len(m.results) {
		idx = len(m.results) - 1
	}
	result := m.results[idx]
	return result.recs, result.err
}

func (m *mockGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockQueue implements queue.Queue over a simple slice.
type mockQueue struct {
	mu       sync.Mutex
	jobs     []int64
	enqueued []int64
	acked    []int64

	enqueueErr error
}

func (m *mockQueue) Enqueue(_ context.Context, uploadID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.jobs = append(m.jobs, uploadID)
	m.enqueued = append(m.enqueued, uploadID)
	return nil
}

func (m *mockQueue) Dequeue(ctx context.Context, _ time.Duration) (*queue.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.jobs) == 0 {
		return nil, nil
	}
	id := m.jobs[0]
	m.jobs = m.jobs[1:]
	return &queue.Job{UploadID: id}, nil
}

func (m *mockQueue) Ack(_ context.Context, job *queue.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, job.UploadID)
	return nil
}

func (m *mockQueue) Close() error { return nil }
