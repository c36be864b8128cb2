// Command loadcheck fires concurrent GET requests at the demo pages and
// reports the status codes it saw. It exits non-zero if any request failed or
// returned something other than 200.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

var defaultPaths = []string{"/", "/health", "/info"}

type pageResult struct {
	Path    string
	Codes   map[int]int
	Errors  int
	Slowest time.Duration
}

func (p pageResult) ok() bool {
	return p.Errors == 0 && len(p.Codes) == 1 && p.Codes[http.StatusOK] > 0
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the running application")
	count := flag.Int("count", 50, "requests per page")
	concurrency := flag.Int("concurrency", 8, "maximum in-flight requests")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	flag.Parse()

	client := &http.Client{Timeout: *timeout}

	log.Printf("Sending %d requests to each of %s at %s", *count, strings.Join(defaultPaths, ", "), *baseURL)
	results, err := check(context.Background(), client, *baseURL, defaultPaths, *count, *concurrency)
	if err != nil {
		log.Fatalf("check: %v", err)
	}

	failed := report(os.Stdout, results)
	if failed {
		os.Exit(1)
	}
}

func check(ctx context.Context, client *http.Client, baseURL string, paths []string, count, concurrency int) ([]pageResult, error) {
	if count < 1 || concurrency < 1 {
		return nil, fmt.Errorf("count and concurrency must be positive")
	}

	results := make([]pageResult, len(paths))
	var mu sync.Mutex
	for i, p := range paths {
		results[i] = pageResult{Path: p, Codes: make(map[int]int)}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, p := range paths {
		i := i
		url := strings.TrimSuffix(baseURL, "/") + p
		for n := 0; n < count; n++ {
			g.Go(func() error {
				code, elapsed, err := fetch(gctx, client, url)

				mu.Lock()
				defer mu.Unlock()
				r := &results[i]
				if err != nil {
					r.Errors++
					return nil
				}
				r.Codes[code]++
				if elapsed > r.Slowest {
					r.Slowest = elapsed
				}
				return nil
			})
		}
	}

	// Workers record failures instead of returning them.
	_ = g.Wait()
	return results, ctx.Err()
}

func fetch(ctx context.Context, client *http.Client, url string) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, time.Since(start), nil
}

// report prints one line per page and returns true if any page failed.
func report(w io.Writer, results []pageResult) bool {
	failed := false
	for _, r := range results {
		codes := make([]int, 0, len(r.Codes))
		for c := range r.Codes {
			codes = append(codes, c)
		}
		sort.Ints(codes)

		parts := make([]string, 0, len(codes))
		for _, c := range codes {
			parts = append(parts, fmt.Sprintf("%d x%d", c, r.Codes[c]))
		}

		status := "ok"
		if !r.ok() {
			status = "FAIL"
			failed = true
		}
		_, _ = fmt.Fprintf(w, "%-8s %-4s codes=[%s] errors=%d slowest=%s\n",
			r.Path, status, strings.Join(parts, ", "), r.Errors, r.Slowest.Round(time.Millisecond))
	}
	return failed
}
