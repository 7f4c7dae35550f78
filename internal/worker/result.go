package worker

// JobResult reports the outcome of processing one upload job.
type JobResult struct {
	UploadID int64
	Success  bool
	Error    string
}
