// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest runs a batch of document URLs through the
// fetch, validate, repair and highlight pipeline.
//
// A run has two phases. Every URL is fetched concurrently and the run waits
// for all fetches to finish. Fetched documents then go through a fixed-size
// worker pool, where each worker drives one document at a time through its
// state machine. Failures never escape a document: Run returns one Outcome
// per input URL, in input order.
package harvest

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/docharvest/internal/annotate"
	"github.com/pdiddy/docharvest/internal/fetch"
	"github.com/pdiddy/docharvest/internal/metrics"
	"github.com/pdiddy/docharvest/internal/pdfdoc"
	"github.com/pdiddy/docharvest/internal/repair"
	"github.com/pdiddy/docharvest/internal/validate"
	"github.com/pdiddy/docharvest/pkg/types"
)

// Fetcher downloads one document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Validator classifies a payload without modifying it.
type Validator interface {
	Validate(payload []byte) types.ValidationOutcome
}

// Repairer makes one best-effort attempt to fix a corrupt payload.
type Repairer interface {
	Repair(payload []byte) ([]byte, error)
}

// Annotator highlights terms and persists the result.
type Annotator interface {
	Annotate(ref types.DocumentRef, payload []byte, spec types.HighlightSpec) (types.AnnotationReport, error)
}

// Components are the pipeline stages a Harvester drives.
type Components struct {
	Fetcher   Fetcher
	Validator Validator
	Repairer  Repairer
	Annotator Annotator
}

// Option configures a Harvester.
type Option func(*Harvester)

// WithMetrics records fetch, repair and outcome metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Harvester) { h.metrics = m }
}

// Harvester orchestrates batch runs. A Harvester holds no per-run state and
// may be reused.
type Harvester struct {
	comp    Components
	cfg     types.HarvestConfig
	metrics *metrics.Metrics
}

// New returns a Harvester driving the given components.
func New(comp Components, cfg types.HarvestConfig, opts ...Option) *Harvester {
	h := &Harvester{comp: comp, cfg: cfg.WithDefaults()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewDefault wires the production stages. A nil client uses a default
// http.Client.
func NewDefault(client *http.Client, cfg types.HarvestConfig, opts ...Option) *Harvester {
	cfg = cfg.WithDefaults()
	return New(Components{
		Fetcher:   fetch.New(client, cfg.HTTPConfig),
		Validator: validate.Validator{},
		Repairer:  repair.New(cfg.TempDir),
		Annotator: annotate.New(cfg.Annotate),
	}, cfg, opts...)
}

// BatchResult holds one Outcome per input URL, in input order.
type BatchResult struct {
	Outcomes []types.Outcome
}

// Total returns the number of URLs processed.
func (r BatchResult) Total() int { return len(r.Outcomes) }

// Done returns the number of documents that reached StateDone.
func (r BatchResult) Done() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			n++
		}
	}
	return n
}

// Failed returns the number of documents that reached StateFailed.
func (r BatchResult) Failed() int { return r.Total() - r.Done() }

// HasFailures reports whether any document failed.
func (r BatchResult) HasFailures() bool { return r.Failed() > 0 }

// Repaired returns the number of documents that needed a successful repair.
func (r BatchResult) Repaired() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Repaired {
			n++
		}
	}
	return n
}

// Highlights returns the total highlights added across the batch.
func (r BatchResult) Highlights() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Report != nil {
			n += o.Report.Highlights
		}
	}
	return n
}

// OutputPaths returns the final artifact path of each successful document.
func (r BatchResult) OutputPaths() []string {
	var paths []string
	for _, o := range r.Outcomes {
		if p := o.OutputPath(); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// Run processes urls and returns one Outcome per URL. ctx bounds the
// network requests only; once fetched, documents run to completion.
// An empty list is a no-op.
func (h *Harvester) Run(ctx context.Context, urls []string, spec types.HighlightSpec) BatchResult {
	if len(urls) == 0 {
		return BatchResult{}
	}
	fetched := h.fetchAll(ctx, h.refs(urls))
	return BatchResult{Outcomes: h.processAll(fetched, spec)}
}

func (h *Harvester) refs(urls []string) []types.DocumentRef {
	refs := make([]types.DocumentRef, len(urls))
	for i, u := range urls {
		refs[i] = types.DocumentRef{
			SourceURL: u,
			DestPath:  filepath.Join(h.cfg.OutputDir, pdfdoc.FileName(u)),
		}
	}
	return refs
}

// fetchAll starts one fetch per ref and waits for all of them. Each
// goroutine writes only its own slot.
func (h *Harvester) fetchAll(ctx context.Context, refs []types.DocumentRef) []types.FetchResult {
	results := make([]types.FetchResult, len(refs))
	var g errgroup.Group
	if h.cfg.FetchConcurrency > 0 {
		g.SetLimit(h.cfg.FetchConcurrency)
	}
	for i, ref := range refs {
		g.Go(func() error {
			start := time.Now()
			payload, err := h.comp.Fetcher.Fetch(ctx, ref.SourceURL)
			h.metrics.ObserveFetch(time.Since(start), err)
			results[i] = types.FetchResult{Ref: ref, Payload: payload, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

type job struct {
	index int
	fr    types.FetchResult
}

type result struct {
	index   int
	outcome types.Outcome
}

// processAll feeds fetched documents to a pool of workers and gathers
// outcomes back into input order.
func (h *Harvester) processAll(fetched []types.FetchResult, spec types.HighlightSpec) []types.Outcome {
	jobs := make(chan job)
	results := make(chan result)

	var wg sync.WaitGroup
	for range min(h.cfg.Workers, len(fetched)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- result{index: j.index, outcome: h.process(j.fr, spec)}
			}
		}()
	}

	go func() {
		for i, fr := range fetched {
			jobs <- job{index: i, fr: fr}
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	outcomes := make([]types.Outcome, len(fetched))
	for r := range results {
		outcomes[r.index] = r.outcome
	}
	return outcomes
}

// process drives one document to a terminal state.
func (h *Harvester) process(fr types.FetchResult, spec types.HighlightSpec) (out types.Outcome) {
	out.Ref = fr.Ref
	defer func() { h.metrics.ObserveOutcome(out) }()

	if fr.Err != nil {
		out.State = types.StateFailed
		out.Kind = kindOr(fr.Err, types.KindTransport)
		out.Reason = fr.Err.Error()
		out.Trace = []types.DocumentState{types.StateFailed}
		return out
	}

	m := newMachine()
	defer func() {
		if p := recover(); p != nil {
			out.State = types.StateFailed
			out.Kind = stageKind(m.state)
			out.Reason = fmt.Sprintf("panic while %s: %v", m.state, p)
			out.Trace = append(m.Trace(), types.StateFailed)
		}
	}()

	fail := func(kind types.ErrorKind, reason string) {
		m.to(types.StateFailed)
		out.Kind = kind
		out.Reason = reason
	}

	payload := fr.Payload
	for !m.state.Terminal() {
		switch m.state {
		case types.StateFetched:
			m.to(types.StateValidating)

		case types.StateValidating:
			v := h.comp.Validator.Validate(payload)
			switch v.Status {
			case types.Valid:
				m.to(types.StateAnnotating)
			case types.Corrupt:
				m.to(types.StateRepairing)
			default:
				fail(kindOr(v.Err(), types.KindUnrepairable), v.String())
			}

		case types.StateRepairing:
			repaired, err := h.comp.Repairer.Repair(payload)
			h.metrics.ObserveRepair(err)
			if err != nil {
				fail(kindOr(err, types.KindUnrepairable), err.Error())
				continue
			}
			payload = repaired
			m.to(types.StateRevalidating)

		case types.StateRevalidating:
			v := h.comp.Validator.Validate(payload)
			if !v.IsValid() {
				fail(types.KindUnrepairable, "still invalid after repair: "+v.String())
				continue
			}
			out.Repaired = true
			m.to(types.StateAnnotating)

		case types.StateAnnotating:
			report, err := h.comp.Annotator.Annotate(fr.Ref, payload, spec)
			out.Report = &report
			if err != nil {
				fail(kindOr(err, types.KindPersist), err.Error())
				continue
			}
			m.to(types.StateDone)
		}
	}

	out.State = m.state
	out.Trace = m.Trace()
	return out
}

// kindOr returns the kind err carries, or fallback when it carries none.
func kindOr(err error, fallback types.ErrorKind) types.ErrorKind {
	if k := types.KindOf(err); k != types.KindNone {
		return k
	}
	return fallback
}

// stageKind is the failure kind attributed to a panic in state s.
func stageKind(s types.DocumentState) types.ErrorKind {
	if s == types.StateAnnotating {
		return types.KindPersist
	}
	return types.KindUnrepairable
}
