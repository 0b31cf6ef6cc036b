package trace

import (
	"io"
	"strconv"
	"sync"
	"time"
)

// Recorder writes Chrome trace-event JSON (chrome://tracing, Perfetto) with
// one begin/end pair per pipeline stage. A nil *Recorder records nothing.
type Recorder struct {
	w    io.WriteCloser
	lock sync.Mutex
	now  func() time.Time
}

func NewRecorder(w io.WriteCloser) *Recorder {
	return newRecorder(w, time.Now)
}

func newRecorder(w io.WriteCloser, now func() time.Time) *Recorder {
	r := &Recorder{w: w, now: now}
	ts := now().UnixMicro()
	io.WriteString(w, "{\"traceEvents\": [")
	io.WriteString(w,
		`{ "name": "process_name",`+
			`"ph": "M",`+
			`"ts":`+strconv.FormatInt(ts, 10)+`,`+
			`"pid": 1, "cat": "__metadata",`+
			`"args": {"name": "vispath"}}`)
	return r
}

func (r *Recorder) Begin(name string) {
	r.event("B", name)
}

func (r *Recorder) End(name string) {
	r.event("E", name)
}

// Stage brackets fn with begin and end events and returns its error.
func (r *Recorder) Stage(name string, fn func() error) error {
	r.Begin(name)
	defer r.End(name)
	return fn()
}

func (r *Recorder) event(phase, name string) {
	if r == nil {
		return
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	ts := r.now().UnixMicro()
	// note: single-threaded pipeline, so tid is fixed
	io.WriteString(r.w,
		`, { "ph": "`+phase+`", "cat": "stage",`+
			`"name": `+strconv.Quote(name)+`,`+
			`"ts": `+strconv.FormatInt(ts, 10)+`,`+
			`"pid": 1, "tid": 1}`)
}

func (r *Recorder) Finish() error {
	if r == nil {
		return nil
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, err := io.WriteString(r.w, "]}"); err != nil {
		r.w.Close()
		return err
	}
	return r.w.Close()
}
