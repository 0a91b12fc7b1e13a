package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/hoopcast/hoopcast/internal/models"
)

const (
	QueueRender = "queue:render"
	QueueBatch  = "queue:batch"
)

type Queue struct {
	client *redis.Client
}

type Job struct {
	ID        uuid.UUID                `json:"id"`
	Type      string                   `json:"type"`
	GameID    string                   `json:"game_id,omitempty"`
	Record    *models.PredictionRecord `json:"record,omitempty"` // inline record for ad-hoc renders
	Date      string                   `json:"date,omitempty"`   // batch jobs
	Limit     int                      `json:"limit,omitempty"`  // batch jobs
	CreatedAt time.Time                `json:"created_at"`
}

func New(redisURL string) (*Queue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Queue{client: client}, nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}

func (q *Queue) Enqueue(ctx context.Context, queueName string, job *Job) error {
	job.CreatedAt = time.Now()

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return q.client.RPush(ctx, queueName, data).Err()
}

func (q *Queue) Dequeue(ctx context.Context, queueName string, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, queueName).Result()
	if err == redis.Nil {
		return nil, nil // No job available
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue: %w", err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected redis response")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

func (q *Queue) GetQueueLength(ctx context.Context, queueName string) (int64, error) {
	return q.client.LLen(ctx, queueName).Result()
}

// EnqueueRender enqueues a single-record render job.
func (q *Queue) EnqueueRender(ctx context.Context, jobID uuid.UUID, record *models.PredictionRecord) error {
	job := &Job{
		ID:     jobID,
		Type:   "render",
		GameID: record.GameID,
		Record: record,
	}
	return q.Enqueue(ctx, QueueRender, job)
}

// EnqueueBatch enqueues a daily batch job for a date.
func (q *Queue) EnqueueBatch(ctx context.Context, jobID uuid.UUID, date string, limit int) error {
	job := &Job{
		ID:    jobID,
		Type:  "batch",
		Date:  date,
		Limit: limit,
	}
	return q.Enqueue(ctx, QueueBatch, job)
}
