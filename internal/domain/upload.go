package domain

import (
	"errors"
	"time"
)

// UploadStatus represents the processing state of an upload
type UploadStatus string

// Possible upload status values
const (
	UploadStatusPending    UploadStatus = "pending"
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusCompleted  UploadStatus = "completed"
	UploadStatusFailed     UploadStatus = "failed"
)

// Common validation errors for Upload
var (
	ErrEmptyUploadFilePath  = errors.New("upload file path cannot be empty")
	ErrEmptyUploadFilename  = errors.New("upload filename cannot be empty")
	ErrInvalidUploadStatus  = errors.New("invalid upload status")
	ErrInvalidUploadStudent = errors.New("upload student ID must be positive")
)

// Upload represents one submitted writing sample awaiting vocabulary
// analysis. The ID is assigned by storage on creation; RetryCount tracks
// how many times the recovery sweep has reset this upload back to pending.
type Upload struct {
	ID          int64        `json:"id"`
	EducatorID  int64        `json:"educator_id"`
	StudentID   int64        `json:"student_id"`
	FilePath    string       `json:"file_path"`
	Filename    string       `json:"filename"`
	Status      UploadStatus `json:"status"`
	RetryCount  int          `json:"retry_count"`
	CreatedAt   time.Time    `json:"created_at"`
	ProcessedAt *time.Time   `json:"processed_at,omitempty"`
}

// NewUpload creates a new Upload in the pending state with the creation
// timestamp set. Returns an error if validation fails.
func NewUpload(educatorID, studentID int64, filePath, filename string) (*Upload, error) {
	upload := &Upload{
		EducatorID: educatorID,
		StudentID:  studentID,
		FilePath:   filePath,
		Filename:   filename,
		Status:     UploadStatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	if err := upload.Validate(); err != nil {
		return nil, err
	}

	return upload, nil
}

// Validate checks if the Upload has valid data.
func (u *Upload) Validate() error {
	if u.StudentID <= 0 {
		return ErrInvalidUploadStudent
	}

	if u.FilePath == "" {
		return ErrEmptyUploadFilePath
	}

	if u.Filename == "" {
		return ErrEmptyUploadFilename
	}

	if !isValidUploadStatus(u.Status) {
		return ErrInvalidUploadStatus
	}

	return nil
}

// CanTransitionTo reports whether moving from the upload's current status
// to the target status is a legal state machine transition. Transitions
// are monotonic (pending -> processing -> completed/failed) except for the
// recovery edge back to pending, which the stuck-upload sweep uses to
// requeue work lost to a crashed worker.
func (u *Upload) CanTransitionTo(target UploadStatus) bool {
	switch target {
	case UploadStatusProcessing:
		return u.Status == UploadStatusPending
	case UploadStatusCompleted, UploadStatusFailed:
		return u.Status == UploadStatusProcessing
	case UploadStatusPending:
		// Recovery edge: stuck pending or processing rows may be reset.
		return u.Status == UploadStatusPending || u.Status == UploadStatusProcessing
	default:
		return false
	}
}

// IsTerminal reports whether the upload has reached a final state.
func (u *Upload) IsTerminal() bool {
	return u.Status == UploadStatusCompleted || u.Status == UploadStatusFailed
}

// isValidUploadStatus checks if the given status is a valid UploadStatus.
func isValidUploadStatus(status UploadStatus) bool {
	switch status {
	case UploadStatusPending, UploadStatusProcessing, UploadStatusCompleted, UploadStatusFailed:
		return true
	default:
		return false
	}
}
