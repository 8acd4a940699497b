// Package jobs tracks background pipelines as process groups. State changes
// are observed by polling with non-blocking waits, so the interactive loop
// never stalls on a running child.
package jobs

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Status is the lifecycle state of a job.
type Status int

const (
	// Running means at least one process is alive and not stopped.
	Running Status = iota
	// Stopped means a process in the group reported a stop signal.
	Stopped
	// Done means every process exited with status zero.
	Done
	// Failed means every process exited and the last one was non-zero.
	Failed
)

func (s Status) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == Done || s == Failed
}

// Job is one background pipeline.
type Job struct {
	// ID is the shell-visible job number, monotonically assigned from 1.
	ID int
	// Pgid is the process group of the pipeline.
	Pgid int
	// Command is the original command text, for notifications.
	Command string
	// Pids are the pipeline's processes in order.
	Pids []int
	// Status is updated by Manager.UpdateStatus.
	Status Status

	exited   map[int]bool
	lastExit int
}

// ExitCode returns the exit status of the job's final process; only
// meaningful once the job is terminal.
func (j *Job) ExitCode() int {
	return j.lastExit
}

// pollResult is one non-blocking observation of a pid.
type pollResult struct {
	alive    bool
	stopped  bool
	exitCode int
}

// WaitFunc polls one pid without blocking. Injected for tests.
type WaitFunc func(pid int) pollResult

func systemWait(pid int) pollResult {
	var ws unix.WaitStatus
	wpid, err := unix.Wait4(pid, &ws, unix.WNOHANG|unix.WUNTRACED|unix.WCONTINUED, nil)
	switch {
	case err != nil:
		// ECHILD and friends: the process is gone and nothing further
		// can be learned.
		return pollResult{exitCode: 127}
	case wpid == 0:
		return pollResult{alive: true}
	case ws.Stopped():
		return pollResult{alive: true, stopped: true}
	case ws.Continued():
		return pollResult{alive: true}
	case ws.Signaled():
		return pollResult{exitCode: 128 + int(ws.Signal())}
	default:
		return pollResult{exitCode: ws.ExitStatus()}
	}
}

// Manager owns the job table. All methods are called from the single
// execution goroutine.
type Manager struct {
	nextID int
	jobs   []*Job
	wait   WaitFunc
}

// NewManager creates a Manager polling real processes.
func NewManager() *Manager {
	return &Manager{nextID: 1, wait: systemWait}
}

// NewManagerWithWait creates a Manager with a custom poller, for tests.
func NewManagerWithWait(wait WaitFunc) *Manager {
	return &Manager{nextID: 1, wait: wait}
}

// Add registers a freshly backgrounded pipeline and returns its job. Job
// numbering restarts at 1 whenever the table is empty, and IDs are never
// reused while a job is live.
func (m *Manager) Add(pgid int, pids []int, command string) *Job {
	if len(m.jobs) == 0 {
		m.nextID = 1
	}

	job := &Job{
		ID:      m.nextID,
		Pgid:    pgid,
		Command: command,
		Pids:    append([]int(nil), pids...),
		Status:  Running,
		exited:  make(map[int]bool),
	}
	m.nextID++
	m.jobs = append(m.jobs, job)
	return job
}

// Jobs returns the tracked jobs in creation order.
func (m *Manager) Jobs() []*Job {
	out := make([]*Job, len(m.jobs))
	copy(out, m.jobs)
	return out
}

// Get finds a job by ID.
func (m *Manager) Get(id int) (*Job, bool) {
	for _, job := range m.jobs {
		if job.ID == id {
			return job, true
		}
	}
	return nil, false
}

// Len returns the number of tracked jobs, terminal ones included.
func (m *Manager) Len() int {
	return len(m.jobs)
}

// UpdateStatus polls every non-terminal job once. A job becomes Done (or
// Failed, on a non-zero final exit) when all of its pids have exited. Any
// stopped pid marks the whole job Stopped for this poll without waiting on
// its siblings.
func (m *Manager) UpdateStatus() {
	for _, job := range m.jobs {
		if job.Status.Terminal() {
			continue
		}
		m.pollJob(job)
	}
}

func (m *Manager) pollJob(job *Job) {
	anyStopped := false
	allExited := true

	for _, pid := range job.Pids {
		if job.exited[pid] {
			continue
		}
		res := m.wait(pid)
		switch {
		case !res.alive:
			job.exited[pid] = true
			// The pipeline's exit code is its final command's.
			if pid == job.Pids[len(job.Pids)-1] {
				job.lastExit = res.exitCode
			}
		case res.stopped:
			anyStopped = true
			allExited = false
		default:
			allExited = false
		}
	}

	switch {
	case allExited && job.lastExit == 0:
		job.Status = Done
	case allExited:
		job.Status = Failed
	case anyStopped:
		job.Status = Stopped
	default:
		job.Status = Running
	}
}

// Cleanup removes and returns every job in a terminal state so the caller
// can notify. Running and stopped jobs stay tracked.
func (m *Manager) Cleanup() []*Job {
	var finished, live []*Job
	for _, job := range m.jobs {
		if job.Status.Terminal() {
			finished = append(finished, job)
		} else {
			live = append(live, job)
		}
	}
	m.jobs = live
	return finished
}
