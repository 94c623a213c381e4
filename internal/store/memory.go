package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vgrishin/shortreel/internal/types"
)

// Memory implements Store with in-process maps. Used when no Redis address
// is configured, and by tests.
type Memory struct {
	mu    sync.RWMutex
	jobs  map[string]*types.Job
	segs  map[string][]*types.Segment // jobID -> segments, append order
	clips map[string]*types.ClipSpec
	creds map[string]*types.Credential
}

func NewMemory() *Memory {
	return &Memory{
		jobs:  make(map[string]*types.Job),
		segs:  make(map[string][]*types.Segment),
		clips: make(map[string]*types.ClipSpec),
		creds: make(map[string]*types.Credential),
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) CreateJob(_ context.Context, job *types.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *Memory) GetJob(_ context.Context, id string) (*types.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	cp := *job
	return &cp, nil
}

func (m *Memory) UpdateJob(_ context.Context, job *types.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; !ok {
		return fmt.Errorf("job %s: %w", job.ID, ErrNotFound)
	}
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *Memory) DeleteJob(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	delete(m.jobs, id)
	delete(m.segs, id)
	for clipID, clip := range m.clips {
		if clip.JobID == id {
			delete(m.clips, clipID)
		}
	}
	return nil
}

func (m *Memory) ListJobs(_ context.Context) ([]*types.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		cp := *job
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) AppendSegment(_ context.Context, seg *types.Segment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[seg.JobID]; !ok {
		return fmt.Errorf("job %s: %w", seg.JobID, ErrNotFound)
	}
	cp := *seg
	m.segs[seg.JobID] = append(m.segs[seg.JobID], &cp)
	return nil
}

func (m *Memory) ListSegments(_ context.Context, jobID string) ([]*types.Segment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	segs := m.segs[jobID]
	out := make([]*types.Segment, 0, len(segs))
	for _, s := range segs {
		cp := *s
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func (m *Memory) UpdateScores(_ context.Context, jobID string, segs []*types.Segment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.segs[jobID]
	byID := make(map[string]int, len(existing))
	for i, s := range existing {
		byID[s.ID] = i
	}
	// Validate the whole batch before touching anything so a bad entry
	// cannot leave the batch half-applied.
	for _, s := range segs {
		if _, ok := byID[s.ID]; !ok {
			return fmt.Errorf("segment %s of job %s: %w", s.ID, jobID, ErrNotFound)
		}
	}
	for _, s := range segs {
		cp := *s
		existing[byID[s.ID]] = &cp
	}
	return nil
}

func (m *Memory) DeleteSegments(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.segs, jobID)
	return nil
}

func (m *Memory) AddClip(_ context.Context, clip *types.ClipSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.clips[clip.ID]; exists {
		return fmt.Errorf("clip %s already exists", clip.ID)
	}
	cp := *clip
	m.clips[clip.ID] = &cp
	return nil
}

func (m *Memory) GetClip(_ context.Context, id string) (*types.ClipSpec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	clip, ok := m.clips[id]
	if !ok {
		return nil, fmt.Errorf("clip %s: %w", id, ErrNotFound)
	}
	cp := *clip
	return &cp, nil
}

func (m *Memory) UpdateClip(_ context.Context, clip *types.ClipSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clips[clip.ID]; !ok {
		return fmt.Errorf("clip %s: %w", clip.ID, ErrNotFound)
	}
	cp := *clip
	m.clips[clip.ID] = &cp
	return nil
}

func (m *Memory) ListClips(_ context.Context, jobID string) ([]*types.ClipSpec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.ClipSpec
	for _, clip := range m.clips {
		if clip.JobID == jobID {
			cp := *clip
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func (m *Memory) DeleteClips(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, clip := range m.clips {
		if clip.JobID == jobID {
			delete(m.clips, id)
		}
	}
	return nil
}

func (m *Memory) GetCredential(_ context.Context, accountEmail string) (*types.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cred, ok := m.creds[accountEmail]
	if !ok {
		return nil, fmt.Errorf("credential %s: %w", accountEmail, ErrNotFound)
	}
	cp := *cred
	return &cp, nil
}

func (m *Memory) PutCredential(_ context.Context, cred *types.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *cred
	m.creds[cred.AccountEmail] = &cp
	return nil
}
