// Command loadtest drives concurrent queries against a running searcher
// and reports throughput, latency percentiles per mode and the cache hit
// rate.
//
// Usage:
//
//	go run ./cmd/loadtest [-url http://localhost:8080] [-concurrency 10] [-duration 30s] [-queries queries.txt]
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

var defaultQueries = []string{
	"information retrieval",
	"vector space model",
	"inverted index",
	`"term frequency"`,
	"cosine similarity",
	"boolean AND query",
	"document NOT spam",
	"stemming stop words",
	`"search engine"`,
	"ranking relevance",
}

type sample struct {
	mode    string
	latency time.Duration
	status  int
	cached  bool
	err     error
}

type recorder struct {
	mu      sync.Mutex
	samples []sample
}

func (r *recorder) add(s sample) {
	r.mu.Lock()
	r.samples = append(r.samples, s)
	r.mu.Unlock()
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	concurrency := flag.Int("concurrency", 10, "concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	queryFile := flag.String("queries", "", "file with one query per line")
	modeList := flag.String("modes", "boolean,phrase,ranked", "comma-separated modes to rotate through")
	limit := flag.Int("limit", 10, "results per query")
	flag.Parse()

	queries := defaultQueries
	if *queryFile != "" {
		var err error
		if queries, err = readQueries(*queryFile); err != nil {
			fmt.Fprintf(os.Stderr, "reading queries: %v\n", err)
			os.Exit(1)
		}
	}
	modes := strings.Split(*modeList, ",")

	fmt.Printf("target=%s concurrency=%d duration=%s queries=%d modes=%v\n\n",
		*baseURL, *concurrency, *duration, len(queries), modes)

	rec := run(*baseURL, *concurrency, *duration, queries, modes, *limit)
	if !report(os.Stdout, rec.samples, *duration) {
		fmt.Println("no requests completed; is the searcher running?")
		os.Exit(1)
	}
}

func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if q := strings.TrimSpace(sc.Text()); q != "" && !strings.HasPrefix(q, "#") {
			out = append(out, q)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("no queries in file")
	}
	return out, nil
}

func run(baseURL string, workers int, d time.Duration, queries, modes []string, limit int) *recorder {
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        workers * 2,
			MaxIdleConnsPerHost: workers * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	rec := &recorder{}
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				q := queries[i%len(queries)]
				mode := modes[(i/len(queries))%len(modes)]
				s := query(ctx, client, baseURL, q, mode, limit)
				if ctx.Err() != nil {
					return nil
				}
				rec.add(s)
			}
			return nil
		})
	}
	g.Wait()
	return rec
}

func query(ctx context.Context, client *http.Client, baseURL, q, mode string, limit int) sample {
	u := fmt.Sprintf("%s/api/v1/search?q=%s&mode=%s&limit=%d", baseURL, url.QueryEscape(q), mode, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return sample{mode: mode, err: err}
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return sample{mode: mode, latency: time.Since(start), err: err}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return sample{
		mode:    mode,
		latency: time.Since(start),
		status:  resp.StatusCode,
		cached:  resp.Header.Get("X-Cache") == "HIT",
	}
}

// report prints the summary and returns false when nothing was recorded.
func report(w io.Writer, samples []sample, d time.Duration) bool {
	if len(samples) == 0 {
		return false
	}
	var failed, cached int
	codes := map[int]int{}
	byMode := map[string][]time.Duration{}
	for _, s := range samples {
		if s.err != nil {
			failed++
			continue
		}
		codes[s.status]++
		if s.status >= 300 {
			failed++
		}
		if s.cached {
			cached++
		}
		byMode[s.mode] = append(byMode[s.mode], s.latency)
	}

	total := len(samples)
	fmt.Fprintf(w, "requests  %d (%.1f/s)\n", total, float64(total)/d.Seconds())
	fmt.Fprintf(w, "failed    %d (%.2f%%)\n", failed, 100*float64(failed)/float64(total))
	fmt.Fprintf(w, "cache hit %.1f%%\n\n", 100*float64(cached)/float64(total))

	modes := make([]string, 0, len(byMode))
	for m := range byMode {
		modes = append(modes, m)
	}
	slices.Sort(modes)
	fmt.Fprintf(w, "%-8s %7s %10s %10s %10s %10s\n", "mode", "count", "p50", "p90", "p99", "max")
	for _, m := range modes {
		lat := byMode[m]
		slices.Sort(lat)
		fmt.Fprintf(w, "%-8s %7d %10s %10s %10s %10s\n", m, len(lat),
			percentile(lat, 50), percentile(lat, 90), percentile(lat, 99), lat[len(lat)-1])
	}

	statuses := make([]int, 0, len(codes))
	for c := range codes {
		statuses = append(statuses, c)
	}
	slices.Sort(statuses)
	fmt.Fprintln(w)
	for _, c := range statuses {
		fmt.Fprintf(w, "status %d: %d\n", c, codes[c])
	}
	return true
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}
