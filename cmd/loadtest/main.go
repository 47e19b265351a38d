// Command loadtest drives concurrent queries against a running search service
// and prints throughput, latency percentiles and cache hit rate.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

var defaultQueries = []string{
	"stock market",
	"election results",
	"climate change",
	"world cup",
	"police said",
	"prime minister",
	"oil prices",
	"hospital patients",
	"court ruling",
	"space station",
	"the",
	"zebra crossing",
}

type target struct {
	baseURL string
	legacy  bool
	order   string
	limit   int
}

func (t target) url(query string) string {
	if t.legacy {
		return fmt.Sprintf("%s/search?query=%s", t.baseURL, url.QueryEscape(query))
	}
	v := url.Values{"q": {query}}
	if t.order != "" {
		v.Set("order", t.order)
	}
	if t.limit > 0 {
		v.Set("limit", fmt.Sprint(t.limit))
	}
	return t.baseURL + "/api/v1/search?" + v.Encode()
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	legacy := flag.Bool("legacy", false, "hit GET /search instead of /api/v1/search")
	order := flag.String("order", "", "result order for /api/v1/search: position or score")
	limit := flag.Int("limit", 10, "result limit for /api/v1/search, 0 for the server default")
	queryFile := flag.String("queries", "", "file with one query per line (default built-in list)")
	flag.Parse()

	queries := defaultQueries
	if *queryFile != "" {
		f, err := os.Open(*queryFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "opening queries: %v\n", err)
			os.Exit(1)
		}
		queries, err = readQueries(f)
		f.Close()
		if err != nil || len(queries) == 0 {
			fmt.Fprintf(os.Stderr, "reading queries from %s: %v\n", *queryFile, err)
			os.Exit(1)
		}
	}

	t := target{baseURL: strings.TrimRight(*baseURL, "/"), legacy: *legacy, order: *order, limit: *limit}
	fmt.Println("=== Article Search Load Test ===")
	fmt.Printf("Target:      %s\n", t.url("<query>"))
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Printf("Duration:    %s\n", *duration)
	fmt.Printf("Queries:     %d unique\n\n", len(queries))

	start := time.Now()
	rec := run(context.Background(), t, queries, *concurrency, *duration)
	rep := rec.report(time.Since(start))
	rep.print(os.Stdout)
	if rep.Total == 0 {
		fmt.Println("\nWARNING: no requests completed. Is the service running?")
		os.Exit(1)
	}
}

func readQueries(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if q := strings.TrimSpace(scanner.Text()); q != "" && !strings.HasPrefix(q, "#") {
			out = append(out, q)
		}
	}
	return out, scanner.Err()
}

func run(parent context.Context, t target, queries []string, concurrency int, d time.Duration) *recorder {
	rec := newRecorder()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        concurrency * 2,
			MaxIdleConnsPerHost: concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				o := t.do(ctx, client, queries[i%len(queries)])
				if errors.Is(o.err, context.DeadlineExceeded) || errors.Is(o.err, context.Canceled) {
					return nil
				}
				rec.record(o)
			}
			return nil
		})
	}
	g.Wait()
	return rec
}

func (t target) do(ctx context.Context, client *http.Client, query string) outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url(query), nil)
	if err != nil {
		return outcome{err: err}
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return outcome{err: err}
	}
	defer resp.Body.Close()
	o := outcome{
		status:    resp.StatusCode,
		cacheHit:  resp.Header.Get("X-Cache") == "HIT",
		totalHits: -1,
	}
	if resp.StatusCode == http.StatusOK {
		o.totalHits = decodeHits(resp.Body, t.legacy)
	}
	io.Copy(io.Discard, resp.Body)
	if err := ctx.Err(); err != nil {
		return outcome{err: err}
	}
	o.latency = time.Since(start)
	return o
}

func decodeHits(r io.Reader, legacy bool) int {
	if legacy {
		var results []json.RawMessage
		if json.NewDecoder(r).Decode(&results) != nil {
			return -1
		}
		return len(results)
	}
	var body struct {
		TotalHits int `json:"total_hits"`
	}
	if json.NewDecoder(r).Decode(&body) != nil {
		return -1
	}
	return body.TotalHits
}
