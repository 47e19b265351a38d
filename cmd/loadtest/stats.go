package main

import (
	"fmt"
	"io"
	"math"
	"slices"
	"sync"
	"time"
)

// recorder accumulates per-request outcomes from concurrent workers.
type recorder struct {
	mu        sync.Mutex
	latencies []time.Duration
	status    map[int]int64
	transport int64
	cacheHits int64
	hits      int64
}

func newRecorder() *recorder {
	return &recorder{
		latencies: make([]time.Duration, 0, 100000),
		status:    make(map[int]int64),
	}
}

type outcome struct {
	latency  time.Duration
	status   int
	cacheHit bool
	// totalHits is the candidate count reported by the API; -1 when the
	// response could not be decoded.
	totalHits int
	err       error
}

func (r *recorder) record(o outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.err != nil {
		r.transport++
		return
	}
	r.latencies = append(r.latencies, o.latency)
	r.status[o.status]++
	if o.cacheHit {
		r.cacheHits++
	}
	if o.totalHits > 0 {
		r.hits++
	}
}

type report struct {
	Total      int64
	Success    int64
	Errors     int64
	CacheHits  int64
	WithHits   int64
	RPS        float64
	Min, Max   time.Duration
	Avg        time.Duration
	StdDev     time.Duration
	P50, P90   time.Duration
	P95, P99   time.Duration
	StatusCode map[int]int64
}

func (r *recorder) report(elapsed time.Duration) report {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep := report{
		Errors:     r.transport,
		CacheHits:  r.cacheHits,
		WithHits:   r.hits,
		StatusCode: make(map[int]int64, len(r.status)),
	}
	for code, n := range r.status {
		rep.StatusCode[code] = n
		if code >= 200 && code < 300 {
			rep.Success += n
		} else {
			rep.Errors += n
		}
	}
	rep.Total = rep.Success + rep.Errors
	if elapsed > 0 {
		rep.RPS = float64(rep.Total) / elapsed.Seconds()
	}
	if len(r.latencies) == 0 {
		return rep
	}

	sorted := slices.Clone(r.latencies)
	slices.Sort(sorted)
	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}
	rep.Avg = sum / time.Duration(len(sorted))
	var sq float64
	for _, l := range sorted {
		d := float64(l - rep.Avg)
		sq += d * d
	}
	rep.StdDev = time.Duration(math.Sqrt(sq / float64(len(sorted))))
	rep.Min, rep.Max = sorted[0], sorted[len(sorted)-1]
	rep.P50 = percentile(sorted, 50)
	rep.P90 = percentile(sorted, 90)
	rep.P95 = percentile(sorted, 95)
	rep.P99 = percentile(sorted, 99)
	return rep
}

// percentile uses the nearest-rank method on an ascending slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}

func (rep report) print(w io.Writer) {
	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Requests:      %d\n", rep.Total)
	fmt.Fprintf(w, "Successful:    %d\n", rep.Success)
	fmt.Fprintf(w, "Errors:        %d\n", rep.Errors)
	if rep.Total > 0 {
		fmt.Fprintf(w, "Error rate:    %.2f%%\n", float64(rep.Errors)/float64(rep.Total)*100)
		fmt.Fprintf(w, "Requests/sec:  %.2f\n", rep.RPS)
	}
	if rep.Success > 0 {
		fmt.Fprintf(w, "Cache hits:    %d (%.1f%%)\n", rep.CacheHits, float64(rep.CacheHits)/float64(rep.Success)*100)
		fmt.Fprintf(w, "With matches:  %d\n", rep.WithHits)
	}
	if rep.Max > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Latency ===")
		fmt.Fprintf(w, "Min:    %s\n", rep.Min)
		fmt.Fprintf(w, "Avg:    %s\n", rep.Avg)
		fmt.Fprintf(w, "P50:    %s\n", rep.P50)
		fmt.Fprintf(w, "P90:    %s\n", rep.P90)
		fmt.Fprintf(w, "P95:    %s\n", rep.P95)
		fmt.Fprintf(w, "P99:    %s\n", rep.P99)
		fmt.Fprintf(w, "Max:    %s\n", rep.Max)
		fmt.Fprintf(w, "StdDev: %s\n", rep.StdDev)
	}
	codes := make([]int, 0, len(rep.StatusCode))
	for code := range rep.StatusCode {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Status Codes ===")
	for _, code := range codes {
		fmt.Fprintf(w, "  %d: %d\n", code, rep.StatusCode[code])
	}
}
