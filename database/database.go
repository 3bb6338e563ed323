package database

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// KeyValueStore is a flat string store. A missing key is reported as ("", false, nil).
type KeyValueStore interface {
	KVGet(ctx context.Context, key string) (string, bool, error)
	KVSet(ctx context.Context, key, value string) error
	KVDelete(ctx context.Context, key string) error
	KVKeys(ctx context.Context, prefix string) ([]string, error)
}

// JobStore tracks background and request scoped jobs
type JobStore interface {
	CreateJob(jobType JobType, message string) (*Job, error)
	UpdateJobProgress(jobID ulid.ULID, progress int, currentStep string) error
	UpdateJobStatus(jobID ulid.ULID, status JobStatus, message string) error
	UpdateJobError(jobID ulid.ULID, errorMsg string) error
	CompleteJob(jobID ulid.ULID, result string) error
	GetJob(jobID ulid.ULID) (*Job, error)
	GetRecentJobs(limit, offset int) ([]Job, error)
	GetActiveJobs() ([]Job, error)
	DeleteOldJobs(olderThan time.Duration) (int, error)
}

// Repository defines database operations
type Repository interface {
	KeyValueStore
	JobStore
	Ping(ctx context.Context) error
	Close() error
}

// CalculateUUID generates a time ordered ID
func CalculateUUID(time time.Time) (ulid.ULID, error) {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.UnixNano())), 0)
	newULID, err := ulid.New(ulid.Timestamp(time), entropy)
	if err != nil {
		return newULID, err
	}
	return newULID, nil
}
