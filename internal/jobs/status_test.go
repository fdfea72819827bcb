package jobs_test

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"ipsync/internal/jobs"
)

func TestStatusStoreTransitions(t *testing.T) {
	t.Parallel()

	s := jobs.NewStatusStore()
	require.Equal(t, jobs.Idle{}, s.Load())

	require.True(t, s.TryBegin())
	require.Equal(t, jobs.Running{}, s.Load())
	require.False(t, s.TryBegin(), "running store must refuse a second run")

	require.NoError(t, s.Finish(jobs.Failed{Message: "boom"}))
	require.Equal(t, jobs.Failed{Message: "boom"}, s.Load())

	require.True(t, s.TryBegin(), "failed store admits a new run")
	require.NoError(t, s.Finish(jobs.Succeeded{}))
	require.True(t, s.TryBegin(), "succeeded store admits a new run")
}

func TestStatusStoreFinishRejectsNonTerminal(t *testing.T) {
	t.Parallel()

	s := jobs.NewStatusStore()
	require.True(t, s.TryBegin())
	require.ErrorIs(t, s.Finish(jobs.Running{}), jobs.ErrNotTerminal)
	require.ErrorIs(t, s.Finish(jobs.Idle{}), jobs.ErrNotTerminal)
	require.ErrorIs(t, s.Finish(nil), jobs.ErrNotTerminal)
	require.Equal(t, jobs.Running{}, s.Load())
}

func TestStatusStoreTryBeginSingleWinner(t *testing.T) {
	t.Parallel()

	s := jobs.NewStatusStore()
	const n = 64
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if s.TryBegin() {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	require.Equal(t, int32(1), wins.Load())
}

func TestStatusJSON(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		status jobs.Status
		want   string
	}{
		{jobs.Idle{}, `"Idle"`},
		{jobs.Running{}, `"Running"`},
		{jobs.Succeeded{}, `"Succeeded"`},
		{jobs.Failed{Message: "x"}, `"Failed"`},
	} {
		b, err := json.Marshal(tt.status)
		require.NoError(t, err)
		require.JSONEq(t, tt.want, string(b))
		require.JSONEq(t, tt.want, `"`+tt.status.Tag()+`"`)
	}
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	require.False(t, jobs.IsTerminal(jobs.Idle{}))
	require.False(t, jobs.IsTerminal(jobs.Running{}))
	require.True(t, jobs.IsTerminal(jobs.Succeeded{}))
	require.True(t, jobs.IsTerminal(jobs.Failed{}))
}
