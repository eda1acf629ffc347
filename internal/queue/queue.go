// Package queue is the job dispatch channel between the API and the
// worker, backed by a Redis list. The API LPUSHes job descriptors; the
// worker BRPOPs them and executes each to a terminal outcome.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Kind selects the pipeline a job runs through.
type Kind string

const (
	// KindImport runs the CSV import pipeline for an uploaded file.
	KindImport Kind = "import"
	// KindNotify performs a single webhook test delivery.
	KindNotify Kind = "notify"
)

// Job is the wire-format job descriptor.
type Job struct {
	Kind       Kind   `json:"kind"`
	JobID      string `json:"job_id"`
	SourcePath string `json:"source_path,omitempty"`
	EndpointID string `json:"endpoint_id,omitempty"`
}

// NewImportJob describes one CSV import run. The job owns sourcePath
// for its lifetime and removes it on completion.
func NewImportJob(jobID, sourcePath string) Job {
	return Job{Kind: KindImport, JobID: jobID, SourcePath: sourcePath}
}

// NewNotifyJob describes one webhook test delivery.
func NewNotifyJob(jobID, endpointID string) Job {
	return Job{Kind: KindNotify, JobID: jobID, EndpointID: endpointID}
}

// RedisQueue submits and consumes jobs over a Redis list.
type RedisQueue struct {
	client *redis.Client
	name   string
}

// NewRedisQueue creates a queue over an existing Redis client.
func NewRedisQueue(client *redis.Client, name string) *RedisQueue {
	return &RedisQueue{client: client, name: name}
}

// Submit enqueues a job for asynchronous execution.
func (q *RedisQueue) Submit(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("enqueue job %s: %w", job.JobID, err)
	}
	return nil
}

// Next blocks until a job is available or the context is cancelled.
func (q *RedisQueue) Next(ctx context.Context) (Job, error) {
	vals, err := q.client.BRPop(ctx, 0, q.name).Result()
	if err != nil {
		return Job{}, fmt.Errorf("dequeue: %w", err)
	}
	if len(vals) < 2 {
		return Job{}, fmt.Errorf("unexpected BRPop response: %v", vals)
	}

	var job Job
	if err := json.Unmarshal([]byte(vals[1]), &job); err != nil {
		return Job{}, fmt.Errorf("unmarshal job: %w", err)
	}
	return job, nil
}
