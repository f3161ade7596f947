package metrics

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func TestCountersConcurrent(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				atomic.AddInt64(&m.LinesTotal, 1)
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot()["lines_total"]; got != 8000 {
		t.Errorf("lines_total = %d, want 8000", got)
	}
	if !strings.Contains(m.String(), "lines_total=8000\n") {
		t.Errorf("String() = %q", m.String())
	}
}

func TestSnapshotMatchesString(t *testing.T) {
	m := New()
	atomic.AddInt64(&m.ThreatLinesTotal, 3)

	snap := m.Snapshot()
	out := m.String()
	for k := range snap {
		if !strings.Contains(out, k+"=") {
			t.Errorf("String() missing %s", k)
		}
	}
	if snap["threat_lines_total"] != 3 {
		t.Errorf("threat_lines_total = %d", snap["threat_lines_total"])
	}
}
