package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/shopfloor-tools/robobak/internal/core"
	"github.com/shopfloor-tools/robobak/internal/domain/model"
)

// RedisJobStore shares job definitions across workstations through a Redis
// server, one JSON value per job under a common key prefix.
type RedisJobStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisJobStore creates a store on client with the given key prefix.
func NewRedisJobStore(client redis.UniversalClient, prefix string) *RedisJobStore {
	if prefix == "" {
		prefix = "robobak:job:"
	}
	return &RedisJobStore{client: client, prefix: prefix}
}

func (s *RedisJobStore) key(jobID string) string {
	return s.prefix + jobID
}

// Load returns the definition for jobID, or model.ErrJobNotFound.
func (s *RedisJobStore) Load(ctx context.Context, jobID string) (*model.JobDefinition, error) {
	data, err := s.client.Get(ctx, s.key(jobID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("job %s: %w", jobID, model.ErrJobNotFound)
		}
		return nil, fmt.Errorf("redis get %s: %w", jobID, err)
	}

	var job model.JobDefinition
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	return &job, nil
}

// Save writes or replaces the definition for job.JobID. Definitions never
// expire; a job outlives any single run.
func (s *RedisJobStore) Save(ctx context.Context, job *model.JobDefinition) error {
	if err := job.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.JobID, err)
	}
	if err := s.client.Set(ctx, s.key(job.JobID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", job.JobID, err)
	}
	return nil
}

// Delete removes the definition for jobID. Deleting an unknown job returns
// model.ErrJobNotFound.
func (s *RedisJobStore) Delete(ctx context.Context, jobID string) error {
	removed, err := s.client.Del(ctx, s.key(jobID)).Result()
	if err != nil {
		return fmt.Errorf("redis del %s: %w", jobID, err)
	}
	if removed == 0 {
		return fmt.Errorf("job %s: %w", jobID, model.ErrJobNotFound)
	}
	return nil
}

// List returns every stored definition ordered by job ID, scanning the key
// prefix incrementally so large fleets do not block the server.
func (s *RedisJobStore) List(ctx context.Context) ([]*model.JobDefinition, error) {
	var jobs []*model.JobDefinition

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("redis get %s: %w", iter.Val(), err)
		}
		var job model.JobDefinition
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			return nil, fmt.Errorf("decode %s: %w", iter.Val(), err)
		}
		jobs = append(jobs, &job)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].JobID < jobs[j].JobID })
	return jobs, nil
}

var _ core.JobConfigStore = (*RedisJobStore)(nil)
