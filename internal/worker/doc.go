// Package worker contains the background upload-processing pipeline: the
// job processor that turns one queued upload into stored vocabulary
// recommendations, and the polling loop that consumes the job queue and
// periodically sweeps for stuck uploads.
//
// Processing is idempotent. An upload's recommendations are fully
// replaced on every successful run, so redelivered or re-enqueued jobs
// converge to a single consistent result.
package worker
