package framecache

import (
	"sync"

	"github.com/unkn0wn-root/framecache/timecode"
)

// Job is one outstanding render request: the time range it covers and a
// monotonically increasing sequence token assigned at submission.
type Job struct {
	Range timecode.Interval
	Seq   uint64
}

// JobSource is the cache's read-only view of the scheduler's job ledger.
// Jobs() must return jobs in submission order (oldest first). The cache
// never mutates the source and tolerates jobs being appended or retired
// between calls.
type JobSource interface {
	Jobs() []Job
}

// JobList is a scheduler-side JobSource: an append-ordered list with its
// own lock. The scheduler appends a job before dispatching its render and
// retires it once no further completions are expected.
type JobList struct {
	mu   sync.Mutex
	jobs []Job
}

func NewJobList() *JobList { return &JobList{} }

// Append records a submitted job. Callers are responsible for keeping
// Seq monotonically increasing.
func (l *JobList) Append(j Job) {
	l.mu.Lock()
	l.jobs = append(l.jobs, j)
	l.mu.Unlock()
}

// Retire removes every job with sequence <= seq.
func (l *JobList) Retire(seq uint64) {
	l.mu.Lock()
	kept := l.jobs[:0]
	for _, j := range l.jobs {
		if j.Seq > seq {
			kept = append(kept, j)
		}
	}
	l.jobs = kept
	l.mu.Unlock()
}

// Jobs returns a copy of the ledger in submission order.
func (l *JobList) Jobs() []Job {
	l.mu.Lock()
	out := make([]Job, len(l.jobs))
	copy(out, l.jobs)
	l.mu.Unlock()
	return out
}

// Len returns the number of outstanding jobs.
func (l *JobList) Len() int {
	l.mu.Lock()
	n := len(l.jobs)
	l.mu.Unlock()
	return n
}
