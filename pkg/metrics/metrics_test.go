package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTimingMetricRecord(t *testing.T) {
	m := newTimingMetric("test")
	m.Record(10 * time.Millisecond)
	m.Record(30 * time.Millisecond)

	s := m.Stats()
	if s.Count != 2 || s.Avg != 20*time.Millisecond || s.Max != 30*time.Millisecond {
		t.Errorf("Stats = %+v", s)
	}
	if got := s.String(); !strings.Contains(got, "n=2") || !strings.Contains(got, "avg=20ms") {
		t.Errorf("String = %q", got)
	}
}

func TestTimerWithCallback(t *testing.T) {
	before := Decode.Count()
	var got time.Duration
	done := TimerWithCallback(Decode, func(d time.Duration) { got = d })
	time.Sleep(time.Millisecond)
	done()
	if Decode.Count() != before+1 || got <= 0 {
		t.Errorf("count=%d d=%v", Decode.Count(), got)
	}
	found := false
	for _, s := range AllTimingStats() {
		found = found || s.Name == "decode"
	}
	if !found {
		t.Errorf("AllTimingStats missing decode: %+v", AllTimingStats())
	}
}

func TestDisabledIsNoop(t *testing.T) {
	enabled = false
	defer func() { enabled = true }()
	before := Render.Count()
	Timer(Render)()
	if Render.Count() != before {
		t.Error("recorded while disabled")
	}
}

func TestObserveFetch(t *testing.T) {
	before := testutil.ToFloat64(fetchTotal.WithLabelValues("kpis", OutcomeError))
	ObserveFetch("kpis", 5*time.Millisecond, errors.New("down"))
	ObserveFetch("kpis", 5*time.Millisecond, nil)
	if got := testutil.ToFloat64(fetchTotal.WithLabelValues("kpis", OutcomeError)); got != before+1 {
		t.Errorf("error count = %v, want %v", got, before+1)
	}

	CountStale()
	CountRefresh()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`readmit_fetch_total{dataset="kpis",outcome="ok"}`,
		"readmit_fetch_seconds_bucket",
		"readmit_stale_responses_total",
		"readmit_refresh_total",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
