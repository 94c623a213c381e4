package store

import (
	"context"
	"encoding/json"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/vgrishin/shortreel/internal/types"
)

// Redis implements Store on a Redis key-value layout:
//
//	job:<id>            JSON(Job)
//	jobs                sorted set of job ids (score: created_at unix)
//	seg:<id>            JSON(Segment)
//	job:<id>:segments   sorted set of segment ids (score: start time)
//	clip:<id>           JSON(ClipSpec)
//	job:<id>:clips      sorted set of clip ids (score: start time)
//	cred:<email>        JSON(Credential)
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

var _ Store = (*Redis)(nil)

func jobKey(id string) string      { return "job:" + id }
func segKey(id string) string      { return "seg:" + id }
func clipKey(id string) string     { return "clip:" + id }
func credKey(email string) string  { return "cred:" + email }
func jobSegsKey(id string) string  { return "job:" + id + ":segments" }
func jobClipsKey(id string) string { return "job:" + id + ":clips" }

func (r *Redis) CreateJob(ctx context.Context, job *types.Job) error {
	key := jobKey(job.ID)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists > 0 {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, b, 0)
	pipe.ZAdd(ctx, "jobs", redis.Z{Score: float64(job.CreatedAt.Unix()), Member: job.ID})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) GetJob(ctx context.Context, id string) (*types.Job, error) {
	val, err := r.client.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	var job types.Job
	if err := json.Unmarshal(val, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *Redis) UpdateJob(ctx context.Context, job *types.Job) error {
	key := jobKey(job.ID)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("job %s: %w", job.ID, ErrNotFound)
	}
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, b, 0).Err()
}

func (r *Redis) DeleteJob(ctx context.Context, id string) error {
	segIDs, err := r.client.ZRange(ctx, jobSegsKey(id), 0, -1).Result()
	if err != nil {
		return err
	}
	clipIDs, err := r.client.ZRange(ctx, jobClipsKey(id), 0, -1).Result()
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	for _, sid := range segIDs {
		pipe.Del(ctx, segKey(sid))
	}
	for _, cid := range clipIDs {
		pipe.Del(ctx, clipKey(cid))
	}
	pipe.Del(ctx, jobSegsKey(id), jobClipsKey(id), jobKey(id))
	pipe.ZRem(ctx, "jobs", id)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) ListJobs(ctx context.Context) ([]*types.Job, error) {
	ids, err := r.client.ZRevRange(ctx, "jobs", 0, -1).Result()
	if err != nil {
		return nil, err
	}
	jobs := make([]*types.Job, 0, len(ids))
	for _, id := range ids {
		job, err := r.GetJob(ctx, id)
		if err == nil {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

func (r *Redis) AppendSegment(ctx context.Context, seg *types.Segment) error {
	b, err := json.Marshal(seg)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, segKey(seg.ID), b, 0)
	pipe.ZAdd(ctx, jobSegsKey(seg.JobID), redis.Z{Score: seg.Start, Member: seg.ID})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) ListSegments(ctx context.Context, jobID string) ([]*types.Segment, error) {
	ids, err := r.client.ZRange(ctx, jobSegsKey(jobID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*types.Segment, 0, len(ids))
	for _, id := range ids {
		val, err := r.client.Get(ctx, segKey(id)).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, err
		}
		var seg types.Segment
		if err := json.Unmarshal(val, &seg); err != nil {
			return nil, err
		}
		out = append(out, &seg)
	}
	return out, nil
}

// UpdateScores writes the whole batch in one transactional pipeline so a
// failure cannot leave a job's scores half-updated.
func (r *Redis) UpdateScores(ctx context.Context, jobID string, segs []*types.Segment) error {
	pipe := r.client.TxPipeline()
	for _, seg := range segs {
		b, err := json.Marshal(seg)
		if err != nil {
			return err
		}
		pipe.Set(ctx, segKey(seg.ID), b, 0)
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("update scores for job %s: %w", jobID, err)
	}
	return nil
}

func (r *Redis) DeleteSegments(ctx context.Context, jobID string) error {
	ids, err := r.client.ZRange(ctx, jobSegsKey(jobID), 0, -1).Result()
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, segKey(id))
	}
	pipe.Del(ctx, jobSegsKey(jobID))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) AddClip(ctx context.Context, clip *types.ClipSpec) error {
	b, err := json.Marshal(clip)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, clipKey(clip.ID), b, 0)
	pipe.ZAdd(ctx, jobClipsKey(clip.JobID), redis.Z{Score: clip.Start, Member: clip.ID})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) GetClip(ctx context.Context, id string) (*types.ClipSpec, error) {
	val, err := r.client.Get(ctx, clipKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("clip %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	var clip types.ClipSpec
	if err := json.Unmarshal(val, &clip); err != nil {
		return nil, err
	}
	return &clip, nil
}

func (r *Redis) UpdateClip(ctx context.Context, clip *types.ClipSpec) error {
	key := clipKey(clip.ID)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("clip %s: %w", clip.ID, ErrNotFound)
	}
	b, err := json.Marshal(clip)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, b, 0).Err()
}

func (r *Redis) ListClips(ctx context.Context, jobID string) ([]*types.ClipSpec, error) {
	ids, err := r.client.ZRange(ctx, jobClipsKey(jobID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*types.ClipSpec, 0, len(ids))
	for _, id := range ids {
		clip, err := r.GetClip(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, clip)
	}
	return out, nil
}

func (r *Redis) DeleteClips(ctx context.Context, jobID string) error {
	ids, err := r.client.ZRange(ctx, jobClipsKey(jobID), 0, -1).Result()
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, clipKey(id))
	}
	pipe.Del(ctx, jobClipsKey(jobID))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) GetCredential(ctx context.Context, accountEmail string) (*types.Credential, error) {
	val, err := r.client.Get(ctx, credKey(accountEmail)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("credential %s: %w", accountEmail, ErrNotFound)
		}
		return nil, err
	}
	var cred types.Credential
	if err := json.Unmarshal(val, &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

func (r *Redis) PutCredential(ctx context.Context, cred *types.Credential) error {
	b, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, credKey(cred.AccountEmail), b, 0).Err()
}
