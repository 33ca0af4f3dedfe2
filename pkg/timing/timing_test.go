package timing

import "testing"

func TestTimerMetricsNonNegative(t *testing.T) {
	tm := NewTimer()
	tm.StartDNS()
	tm.EndDNS()
	tm.StartTCP()
	tm.EndTCP()
	tm.StartTTFB()
	tm.EndTTFB()

	m := tm.GetMetrics()
	if m.DNSLookup < 0 || m.TCPConnect < 0 || m.TTFB < 0 || m.TotalTime < 0 {
		t.Fatalf("got negative duration in %+v", m)
	}
}

func TestMetricsString(t *testing.T) {
	tm := NewTimer()
	m := tm.GetMetrics()
	if m.String() == "" {
		t.Fatalf("expected non-empty String()")
	}
}
