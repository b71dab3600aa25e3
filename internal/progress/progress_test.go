package progress

import (
	"strings"
	"testing"

	"contend/internal/collector"
	"contend/internal/core"
)

func TestProgress_Quiet(t *testing.T) {
	c := collector.New()
	p := NewProgress(c, true)
	w := &core.MockWriter{}
	p.SetOutput(w)

	p.Start()
	p.Printf("should not appear")
	p.Stop()

	if w.String() != "" {
		t.Errorf("quiet progress wrote output: %q", w.String())
	}
}

func TestProgress_PrintProgress(t *testing.T) {
	c := collector.New()
	c.Report(core.Outcome{Success: true, Attempts: 3})
	c.Report(core.Outcome{Success: false, Attempts: 1, Error: core.ErrorFatal})

	p := NewProgress(c, false)
	w := &core.MockWriter{}
	p.SetOutput(w)
	p.printProgress()

	out := w.String()
	if !strings.Contains(out, "Increments: 2") {
		t.Errorf("missing increment count: %q", out)
	}
	if !strings.Contains(out, "Retries: 2") {
		t.Errorf("missing retries: %q", out)
	}
	if !strings.Contains(out, "Errors: 1") {
		t.Errorf("missing errors: %q", out)
	}
}

func TestProgress_Printf(t *testing.T) {
	p := NewProgress(collector.New(), false)
	w := &core.MockWriter{}
	p.SetOutput(w)

	p.Printf("run %d starting", 3)
	if !strings.Contains(w.String(), "run 3 starting") {
		t.Errorf("Printf output = %q", w.String())
	}
}

func TestProgress_StopIsIdempotent(t *testing.T) {
	p := NewProgress(collector.New(), false)
	w := &core.MockWriter{}
	p.SetOutput(w)

	p.Start()
	p.Stop()
	p.Stop() // second stop must not panic or double-close
}
