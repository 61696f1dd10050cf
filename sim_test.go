package axisim_test

import (
	"strings"
	"testing"

	"github.com/db47h/axisim"
	"github.com/db47h/axisim/hwtest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// probe latches a counter driven by the device under test.
//
type probe struct {
	axisim.Latches
	in   axisim.Input[int]
	seen []int
	err  error
}

func (p *probe) Eval() error {
	p.seen = append(p.seen, p.in.Value())
	return p.err
}

func newProbe(s *axisim.Sim, src *int) *probe {
	p := &probe{}
	p.in = axisim.NewInput(&p.Latches, src, 0)
	s.AddPeripheral(p)
	return p
}

func TestSim_stepOrder(t *testing.T) {
	var ctr int
	s := axisim.NewSim(axisim.DeviceFunc(func() { ctr++ }))
	p0 := newProbe(s, &ctr)
	p1 := newProbe(s, &ctr)
	for i := 0; i < 3; i++ {
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}
	}
	// peripherals see the value latched before the device was evaluated.
	for _, p := range []*probe{p0, p1} {
		if len(p.seen) != 3 || p.seen[0] != 0 || p.seen[1] != 1 || p.seen[2] != 2 {
			t.Fatalf("bad latched values: %v", p.seen)
		}
	}
	if s.Time() != 3 {
		t.Fatalf("expected time 3, got %d", s.Time())
	}
}

func TestSim_clock(t *testing.T) {
	s := axisim.NewSim(nil)
	clk, err := axisim.NewClockGen(s, 1, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	var pin bool
	s.AddClock(clk, &pin)
	var levels []bool
	for i := 0; i < 8; i++ {
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}
		levels = append(levels, pin)
	}
	want := []bool{false, true, true, false, false, true, true, false}
	for i := range want {
		if levels[i] != want[i] {
			t.Fatalf("bad clock levels: %v", levels)
		}
	}
}

func TestSim_error(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := axisim.NewMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}
	var ctr int
	s := axisim.NewSim(nil, axisim.WithMetrics(m))
	p := newProbe(s, &ctr)
	if err = s.Step(); err != nil {
		t.Fatal(err)
	}
	p.err = axisim.Errorf(axisim.KindCRC, "bad frame")
	err = s.Step()
	if err == nil {
		t.Fatal("expected an error")
	}
	hwtest.Trace(t, err)
	if k := axisim.KindOf(err); k != axisim.KindCRC {
		t.Fatalf("expected kind %v, got %v", axisim.KindCRC, k)
	}
	if !strings.Contains(err.Error(), "step 2") {
		t.Fatalf("error should name the failing step: %v", err)
	}
	if v := testutil.ToFloat64(m.Steps); v != 2 {
		t.Fatalf("expected 2 steps, got %g", v)
	}
	if v := testutil.ToFloat64(m.Errors.WithLabelValues("crc")); v != 1 {
		t.Fatalf("expected 1 crc error, got %g", v)
	}
}

type finisher struct{ n, max int }

func (f *finisher) Eval()          { f.n++ }
func (f *finisher) Finished() bool { return f.n >= f.max }

func TestSim_run(t *testing.T) {
	s := axisim.NewSim(nil)
	if err := s.Run(func() bool { return s.Time() == 10 }, 100); err != nil {
		t.Fatal(err)
	}
	if s.Time() != 10 {
		t.Fatalf("expected time 10, got %d", s.Time())
	}

	s = axisim.NewSim(nil)
	err := s.Run(nil, 5)
	if axisim.KindOf(err) != axisim.KindTimeout {
		t.Fatalf("expected a timeout, got %v", err)
	}
	if s.Time() != 5 {
		t.Fatalf("expected time 5, got %d", s.Time())
	}

	f := &finisher{max: 7}
	s = axisim.NewSim(f)
	if err = s.Run(nil, 100); err != nil {
		t.Fatal(err)
	}
	if f.n != 7 {
		t.Fatalf("expected 7 evaluations, got %d", f.n)
	}
}

func TestResetGen(t *testing.T) {
	s := axisim.NewSim(nil)
	clk, err := axisim.NewClockGen(s, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	var resetn bool = true
	r := axisim.NewResetGen(s, clk, &resetn, false)
	if resetn {
		t.Fatal("reset should be asserted on creation")
	}
	// rising edges occur on odd steps
	for i := 1; i < 2*axisim.ResetCycles-1; i++ {
		if err = s.Step(); err != nil {
			t.Fatal(err)
		}
		if resetn || r.Done() {
			t.Fatalf("reset released early at step %d", s.Time())
		}
	}
	if err = s.Step(); err != nil {
		t.Fatal(err)
	}
	if !resetn || !r.Done() {
		t.Fatalf("reset still asserted at step %d", s.Time())
	}
	for i := 0; i < 10; i++ {
		if err = s.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if !resetn {
		t.Fatal("reset asserted again")
	}
}

func TestMetrics_nil(t *testing.T) {
	var m *axisim.Metrics
	m.Beat("x")
	m.Packet("x")
	m.LineError("x")
}

func TestMetrics_register(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := axisim.NewMetrics(reg); err != nil {
		t.Fatal(err)
	}
	if _, err := axisim.NewMetrics(reg); err == nil {
		t.Fatal("registering twice should fail")
	}
}
