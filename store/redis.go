package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/use-agent/jobscout/models"
)

// Redis is a Store shared between processes. Each job is a JSON value
// under <prefix>:job:<id>; ids are indexed in the set <prefix>:jobs.
type Redis struct {
	client *redis.Client
	prefix string
}

// OpenRedis parses redisURL and verifies connectivity.
func OpenRedis(ctx context.Context, redisURL, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedis(client, prefix), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "jobscout"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) jobKey(id string) string { return r.prefix + ":job:" + id }
func (r *Redis) indexKey() string        { return r.prefix + ":jobs" }

func (r *Redis) Contains(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, r.jobKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (r *Redis) Save(ctx context.Context, job *models.Job) error {
	if err := validateJob(job); err != nil {
		return err
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.jobKey(job.JobID), payload, 0)
	pipe.SAdd(ctx, r.indexKey(), job.JobID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save: %w", err)
	}
	return nil
}

func (r *Redis) Read(ctx context.Context, id string) (*models.Job, error) {
	payload, err := r.client.Get(ctx, r.jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var job models.Job
	if err := json.Unmarshal(payload, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

func (r *Redis) List(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
