package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/drummonds/resuminds/feedback"
)

// ResumeKeyPrefix namespaces resume records in the key-value store
const ResumeKeyPrefix = "resume:"

// ResumeRecord is the metadata stored for every uploaded resume
type ResumeRecord struct {
	ID             string             `json:"id"`
	ResumePath     string             `json:"resumePath"`
	ImagePath      string             `json:"imagePath"`
	CompanyName    string             `json:"companyName"`
	JobTitle       string             `json:"jobTitle"`
	JobDescription string             `json:"jobDescription"`
	Feedback       *feedback.Feedback `json:"feedback"`
	PageCount      int                `json:"pageCount,omitempty"`
	ResumeText     string             `json:"resumeText,omitempty"`
	ResumeSize     int64              `json:"resumeSize"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// ResumeKey returns the store key for a resume id
func ResumeKey(id string) string {
	return ResumeKeyPrefix + id
}

// NewResumeID generates the id a new upload is stored under
func NewResumeID() (string, error) {
	id, err := CalculateUUID(time.Now())
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// SaveResume writes the record as JSON under resume:<id>
func SaveResume(ctx context.Context, kv KeyValueStore, record *ResumeRecord) error {
	if record.ID == "" {
		return fmt.Errorf("resume record has no id")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode resume %s: %w", record.ID, err)
	}
	if err := kv.KVSet(ctx, ResumeKey(record.ID), string(payload)); err != nil {
		return fmt.Errorf("failed to save resume %s: %w", record.ID, err)
	}
	return nil
}

// FetchResume loads a record, returning ErrNotFound when the key is missing
func FetchResume(ctx context.Context, kv KeyValueStore, id string) (*ResumeRecord, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	value, ok, err := kv.KVGet(ctx, ResumeKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read resume %s: %w", id, err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	var record ResumeRecord
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		return nil, fmt.Errorf("failed to decode resume %s: %w", id, err)
	}
	if record.ID == "" {
		record.ID = id
	}
	return &record, nil
}

// FetchAllResumes returns every stored record, newest first. Undecodable records are skipped.
func FetchAllResumes(ctx context.Context, kv KeyValueStore) ([]ResumeRecord, error) {
	keys, err := kv.KVKeys(ctx, ResumeKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	records := make([]ResumeRecord, 0, len(keys))
	for _, key := range keys {
		record, err := FetchResume(ctx, kv, strings.TrimPrefix(key, ResumeKeyPrefix))
		if err != nil {
			if Logger != nil {
				Logger.Warn("Skipping unreadable resume record", "key", key, "error", err)
			}
			continue
		}
		records = append(records, *record)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// DeleteResume removes the record. Files referenced by it are left to the caller.
func DeleteResume(ctx context.Context, kv KeyValueStore, id string) error {
	if err := kv.KVDelete(ctx, ResumeKey(id)); err != nil {
		return fmt.Errorf("failed to delete resume %s: %w", id, err)
	}
	return nil
}
