package cache

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPruner struct {
	mu      sync.Mutex
	calls   []time.Duration
	removed int
	err     error
}

func (p *recordingPruner) Prune(maxAge time.Duration) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, maxAge)
	return p.removed, p.err
}

func TestNewJanitor_InvalidSchedule(t *testing.T) {
	_, err := NewJanitor(&recordingPruner{}, "not a schedule", time.Hour, nil)
	assert.Error(t, err)
}

func TestNewJanitor_InvalidMaxAge(t *testing.T) {
	_, err := NewJanitor(&recordingPruner{}, "@hourly", 0, nil)
	assert.Error(t, err)
}

func TestJanitor_RunOnce(t *testing.T) {
	p := &recordingPruner{removed: 3}
	j, err := NewJanitor(p, "@every 1h", 2*time.Hour, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, j.RunOnce())
	require.Len(t, p.calls, 1)
	assert.Equal(t, 2*time.Hour, p.calls[0])
}

func TestJanitor_RunOnceError(t *testing.T) {
	p := &recordingPruner{removed: 1, err: errors.New("disk gone")}
	j, err := NewJanitor(p, "@daily", time.Hour, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, j.RunOnce())
}

func TestJanitor_StartStop(t *testing.T) {
	j, err := NewJanitor(NewMemory(), "@hourly", time.Hour, nil)
	require.NoError(t, err)

	assert.False(t, j.IsRunning())
	j.Start()
	j.Start()
	assert.True(t, j.IsRunning())
	j.Stop()
	j.Stop()
	assert.False(t, j.IsRunning())
}

func TestJanitor_PrunesMemory(t *testing.T) {
	m := NewMemory()
	now := time.Now()
	m.now = func() time.Time { return now }
	require.NoError(t, m.Set("k", []byte("v")))
	now = now.Add(3 * time.Hour)

	j, err := NewJanitor(m, "@hourly", time.Hour, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, j.RunOnce())
	assert.Equal(t, 0, m.Len())
}
