// Package query drives the two-phase protocol: an LLM call selects
// relevant thinking models for a query, a second call produces the
// solution conditioned on them. Process never fails — every outcome,
// including internal errors, terminates in a Result.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ahoffer/cogito/pkg/llm"
	"github.com/ahoffer/cogito/pkg/thinkmodel"
)

// FallbackPreamble prefixes solutions produced without any thinking
// models. Its presence distinguishes the direct-fallback path.
const FallbackPreamble = "I'll address your query directly without using specific thinking models:\n\n"

// Result is the outcome of processing one query. It is immutable after
// construction and owned by the caller.
type Result struct {
	Query          string        `json:"query"`
	SelectedModels []string      `json:"selected_models"`
	Solution       string        `json:"solution"`
	ProcessingTime time.Duration `json:"processing_time"`
	Err            string        `json:"error,omitempty"`
}

// Failed reports whether the result carries an explicit error. Fallback
// solutions without models are not failures.
func (r Result) Failed() bool { return r.Err != "" }

// Processor orchestrates query processing over a model library and an LLM
// gateway. It holds no per-query state and is safe for concurrent use.
type Processor struct {
	lib    *thinkmodel.Library
	client llm.Client
	log    *slog.Logger
}

// NewProcessor creates a Processor. A nil logger falls back to
// slog.Default.
func NewProcessor(lib *thinkmodel.Library, client llm.Client, log *slog.Logger) *Processor {
	if log == nil {
		log = slog.Default()
	}

	return &Processor{lib: lib, client: client, log: log}
}

// Process runs the two-phase protocol for one query:
//
//	select models -> none:  direct answer with the fallback preamble
//	             -> some:  resolve records -> none resolve: error result
//	                                       -> solution from the records
//
// All failures, including panics in the gateway, are converted into a
// Result with Err set; Process never returns an error and never panics.
func (p *Processor) Process(ctx context.Context, query string) (res Result) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			p.log.Error("query processing panicked", "panic", r)
			res = p.failure(query, start, fmt.Errorf("panic: %v", r))
		}
	}()

	p.log.Info("processing query", "query", query)

	selected, err := p.client.SelectModels(ctx, query, p.lib.All())
	if err != nil {
		return p.failure(query, start, err)
	}

	if len(selected) == 0 {
		return p.directFallback(ctx, query, start)
	}

	p.log.Info("thinking models selected", "models", selected)

	records := make([]thinkmodel.Model, 0, len(selected))
	for _, id := range selected {
		m, ok := p.lib.Get(id)
		if !ok {
			p.log.Warn("selected model not in library", "id", id)
			continue
		}
		records = append(records, m)
	}

	if len(records) == 0 {
		// Selection and library disagree (e.g. a reload in between). This
		// is reported, not fatal.
		return Result{
			Query:          query,
			SelectedModels: selected,
			Solution:       "The selected thinking models were not found in the library.",
			ProcessingTime: time.Since(start),
			Err:            "selected model records not found",
		}
	}

	solution, err := p.client.ProposeSolution(ctx, query, records)
	if err != nil {
		return p.failure(query, start, err)
	}

	res = Result{
		Query:          query,
		SelectedModels: selected,
		Solution:       solution,
		ProcessingTime: time.Since(start),
	}
	p.log.Info("query processed", "models", len(records), "duration", res.ProcessingTime)

	return res
}

// directFallback answers the raw query without model guidance. An empty
// selection is a normal outcome, not an error.
func (p *Processor) directFallback(ctx context.Context, query string, start time.Time) Result {
	p.log.Info("no thinking models selected, answering directly")

	text, err := p.client.GenerateText(ctx, query, "")
	if err != nil {
		return p.failure(query, start, err)
	}

	return Result{
		Query:          query,
		SelectedModels: nil,
		Solution:       FallbackPreamble + text,
		ProcessingTime: time.Since(start),
	}
}

func (p *Processor) failure(query string, start time.Time, err error) Result {
	p.log.Error("query processing failed", "query", query, "error", err)

	return Result{
		Query:          query,
		Solution:       "An error occurred while processing your query: " + err.Error(),
		ProcessingTime: time.Since(start),
		Err:            err.Error(),
	}
}

// ProcessBatch processes independent queries concurrently, at most
// concurrency at a time, and returns results in input order. Queries share
// no mutable state, so they are safe to fan out.
func (p *Processor) ProcessBatch(ctx context.Context, queries []string, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]Result, len(queries))
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func() {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = p.Process(ctx, q)
		}()
	}
	wg.Wait()

	return results
}

// Summary reports aggregate statistics over the current model library.
func (p *Processor) Summary() thinkmodel.Summary {
	return p.lib.Summary()
}

// CheckConnectivity probes the LLM backend.
func (p *Processor) CheckConnectivity(ctx context.Context) bool {
	return p.client.CheckConnectivity(ctx)
}

// Library exposes the underlying model library for read-only callers.
func (p *Processor) Library() *thinkmodel.Library {
	return p.lib
}
