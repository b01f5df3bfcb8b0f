package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	callsCounters   []counterCall
	callsHistograms []histCall
	flushCount      int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsCounters = append(f.callsCounters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsHistograms = append(f.callsHistograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	// Success case.
	RecordStep("import", "schema", nil, 2*time.Second)

	// Failure case.
	err := errors.New("boom")
	RecordStep("import", "load", err, 1500*time.Millisecond)

	if len(fb.callsCounters) != 2 {
		t.Fatalf("expected 2 counter calls, got %d", len(fb.callsCounters))
	}
	if len(fb.callsHistograms) != 2 {
		t.Fatalf("expected 2 histogram calls, got %d", len(fb.callsHistograms))
	}

	cc0 := fb.callsCounters[0]
	if cc0.name != "import_step_total" || cc0.delta != 1 {
		t.Fatalf("counter[0] = %#v; want name=import_step_total, delta=1", cc0)
	}
	if got := cc0.labels["status"]; got != "success" {
		t.Fatalf("counter[0].labels[status]=%q; want %q", got, "success")
	}

	cc1 := fb.callsCounters[1]
	if got := cc1.labels["status"]; got != "failure" {
		t.Fatalf("counter[1].labels[status]=%q; want %q", got, "failure")
	}

	h0 := fb.callsHistograms[0]
	if h0.name != "import_step_duration_seconds" {
		t.Fatalf("hist[0].name=%q; want import_step_duration_seconds", h0.name)
	}
	if h0.value < 2.0-0.001 || h0.value > 2.0+0.001 {
		t.Fatalf("hist[0].value=%f; want ~2.0", h0.value)
	}
}

// TestRecordRow_SkipsNonPositiveDelta ensures zero/negative deltas are dropped
// before they reach the backend.
func TestRecordRow_SkipsNonPositiveDelta(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	RecordRow("import", "inserted", 0)
	RecordRow("import", "inserted", -3)
	RecordRow("import", "inserted", 5)

	if len(fb.callsCounters) != 1 {
		t.Fatalf("expected 1 counter call, got %d", len(fb.callsCounters))
	}
	if fb.callsCounters[0].delta != 5 {
		t.Fatalf("delta=%f; want 5", fb.callsCounters[0].delta)
	}
}

// TestNopBackend_SafeByDefault confirms the default backend accepts calls and
// Flush returns nil; metrics must be safe when nothing is configured.
func TestNopBackend_SafeByDefault(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()
	backend = nopBackend{}

	RecordStep("import", "load", nil, time.Second)
	RecordRow("import", "inserted", 10)
	RecordBatches("import", 1)
	if err := Flush(); err != nil {
		t.Fatalf("nop Flush() = %v; want nil", err)
	}
}

// TestSetBackend_NilKeepsExisting documents that SetBackend(nil) is a no-op.
func TestSetBackend_NilKeepsExisting(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	SetBackend(fb)
	SetBackend(nil)

	RecordBatches("import", 2)
	if len(fb.callsCounters) != 1 {
		t.Fatalf("expected the installed backend to receive the call, got %d", len(fb.callsCounters))
	}
}
