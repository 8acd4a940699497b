package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWaiter scripts poll results per pid.
type fakeWaiter struct {
	results map[int]pollResult
}

func (f *fakeWaiter) wait(pid int) pollResult {
	if res, ok := f.results[pid]; ok {
		return res
	}
	return pollResult{alive: true}
}

func (f *fakeWaiter) set(pid int, res pollResult) {
	if f.results == nil {
		f.results = make(map[int]pollResult)
	}
	f.results[pid] = res
}

func newTestManager() (*Manager, *fakeWaiter) {
	w := &fakeWaiter{}
	return NewManagerWithWait(w.wait), w
}

func TestAddAssignsMonotonicIDs(t *testing.T) {
	m, _ := newTestManager()

	j1 := m.Add(100, []int{100}, "sleep 1 &")
	j2 := m.Add(200, []int{200}, "sleep 2 &")

	assert.Equal(t, 1, j1.ID)
	assert.Equal(t, 2, j2.ID)
	assert.Equal(t, Running, j1.Status)
}

func TestIDsNotReusedWhileJobsLive(t *testing.T) {
	m, w := newTestManager()

	m.Add(100, []int{100}, "a &")
	j2 := m.Add(200, []int{200}, "b &")

	// First job finishes and is cleaned; the second remains live.
	w.set(100, pollResult{})
	m.UpdateStatus()
	m.Cleanup()

	j3 := m.Add(300, []int{300}, "c &")
	assert.Greater(t, j3.ID, j2.ID)
}

func TestNumberingRestartsWhenTableEmpty(t *testing.T) {
	m, w := newTestManager()

	m.Add(100, []int{100}, "a &")
	w.set(100, pollResult{})
	m.UpdateStatus()
	m.Cleanup()

	j := m.Add(200, []int{200}, "b &")
	assert.Equal(t, 1, j.ID)
}

func TestRunningToDone(t *testing.T) {
	m, w := newTestManager()
	job := m.Add(100, []int{100}, "quick &")

	m.UpdateStatus()
	assert.Equal(t, Running, job.Status)

	w.set(100, pollResult{exitCode: 0})
	m.UpdateStatus()
	assert.Equal(t, Done, job.Status)

	finished := m.Cleanup()
	require.Len(t, finished, 1)
	assert.Equal(t, job, finished[0])
	assert.Equal(t, 0, m.Len())
}

func TestRunningToFailed(t *testing.T) {
	m, w := newTestManager()
	job := m.Add(100, []int{100}, "false &")

	w.set(100, pollResult{exitCode: 1})
	m.UpdateStatus()

	assert.Equal(t, Failed, job.Status)
	assert.Equal(t, 1, job.ExitCode())
}

func TestPipelineWaitsForAllPids(t *testing.T) {
	m, w := newTestManager()
	job := m.Add(100, []int{100, 101, 102}, "a | b | c &")

	// First two processes exit; the last is still running.
	w.set(100, pollResult{exitCode: 0})
	w.set(101, pollResult{exitCode: 1})
	m.UpdateStatus()
	assert.Equal(t, Running, job.Status)

	// Final process exits cleanly; intermediate failures don't count.
	w.set(102, pollResult{exitCode: 0})
	m.UpdateStatus()
	assert.Equal(t, Done, job.Status)
	assert.Equal(t, 0, job.ExitCode())
}

func TestAnyStoppedPidStopsJob(t *testing.T) {
	m, w := newTestManager()
	job := m.Add(100, []int{100, 101}, "a | b &")

	w.set(100, pollResult{alive: true, stopped: true})
	m.UpdateStatus()
	assert.Equal(t, Stopped, job.Status)

	// External resume: the stopped pid reports running again.
	w.set(100, pollResult{alive: true})
	m.UpdateStatus()
	assert.Equal(t, Running, job.Status)
}

func TestCleanupKeepsNonTerminalJobs(t *testing.T) {
	m, w := newTestManager()
	running := m.Add(100, []int{100}, "slow &")
	done := m.Add(200, []int{200}, "quick &")

	w.set(200, pollResult{})
	m.UpdateStatus()

	finished := m.Cleanup()
	require.Len(t, finished, 1)
	assert.Equal(t, done.ID, finished[0].ID)

	remaining := m.Jobs()
	require.Len(t, remaining, 1)
	assert.Equal(t, running.ID, remaining[0].ID)
	assert.Equal(t, Running, remaining[0].Status)
}

func TestGet(t *testing.T) {
	m, _ := newTestManager()
	job := m.Add(100, []int{100}, "x &")

	got, ok := m.Get(job.ID)
	assert.True(t, ok)
	assert.Equal(t, job, got)

	_, ok = m.Get(99)
	assert.False(t, ok)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "Running", Running.String())
	assert.Equal(t, "Stopped", Stopped.String())
	assert.Equal(t, "Done", Done.String())
	assert.Equal(t, "Failed", Failed.String())
	assert.True(t, Done.Terminal())
	assert.False(t, Stopped.Terminal())
}
