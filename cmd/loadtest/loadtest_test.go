package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPercentile(t *testing.T) {
	sorted := make([]time.Duration, 100)
	for i := range sorted {
		sorted[i] = time.Duration(i+1) * time.Millisecond
	}
	tests := []struct {
		p    float64
		want time.Duration
	}{
		{50, 50 * time.Millisecond},
		{99, 99 * time.Millisecond},
		{100, 100 * time.Millisecond},
		{0, 1 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.p); got != tt.want {
			t.Errorf("percentile(%v) = %s, want %s", tt.p, got, tt.want)
		}
	}
	if percentile(nil, 50) != 0 {
		t.Error("empty slice should give 0")
	}
}

func TestRecorderReport(t *testing.T) {
	rec := newRecorder()
	rec.record(outcome{latency: 10 * time.Millisecond, status: 200, cacheHit: true, totalHits: 2})
	rec.record(outcome{latency: 30 * time.Millisecond, status: 200, totalHits: 0})
	rec.record(outcome{latency: 20 * time.Millisecond, status: 503, totalHits: -1})
	rec.record(outcome{err: fmt.Errorf("connection refused")})

	rep := rec.report(time.Second)
	if rep.Total != 4 || rep.Success != 2 || rep.Errors != 2 {
		t.Errorf("counts = %+v", rep)
	}
	if rep.CacheHits != 1 || rep.WithHits != 1 {
		t.Errorf("cache/hits = %d/%d", rep.CacheHits, rep.WithHits)
	}
	if rep.Min != 10*time.Millisecond || rep.Max != 30*time.Millisecond || rep.Avg != 20*time.Millisecond {
		t.Errorf("latency = %s/%s/%s", rep.Min, rep.Avg, rep.Max)
	}

	var out bytes.Buffer
	rep.print(&out)
	for _, want := range []string{"Requests:      4", "503: 1", "Cache hits:    1 (50.0%)"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("report missing %q:\n%s", want, out.String())
		}
	}
}

func TestTargetURL(t *testing.T) {
	legacy := target{baseURL: "http://h", legacy: true}
	if got := legacy.url("cat dog"); got != "http://h/search?query=cat+dog" {
		t.Errorf("legacy url = %s", got)
	}
	api := target{baseURL: "http://h", order: "score", limit: 5}
	if got := api.url("cat"); got != "http://h/api/v1/search?limit=5&order=score&q=cat" {
		t.Errorf("api url = %s", got)
	}
}

func TestReadQueries(t *testing.T) {
	got, err := readQueries(strings.NewReader("cat\n\n# comment\n  dog  \n"))
	if err != nil || len(got) != 2 || got[1] != "dog" {
		t.Fatalf("readQueries = %v, %v", got, err)
	}
}

func TestRunAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Cache", "HIT")
		fmt.Fprint(w, `{"total_hits": 3}`)
	}))
	defer srv.Close()

	rec := run(context.Background(), target{baseURL: srv.URL}, []string{"cat"}, 2, 100*time.Millisecond)
	rep := rec.report(100 * time.Millisecond)
	if rep.Success == 0 || rep.Errors != 0 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.CacheHits != rep.Success || rep.WithHits != rep.Success {
		t.Errorf("cache hits %d, with hits %d, success %d", rep.CacheHits, rep.WithHits, rep.Success)
	}
}
