// Package harvest implements the asset harvesting engine: it turns fetched
// HTML documents into a ranked, deduplicated list of candidate component
// images. Per-source extraction and scoring run concurrently with a bounded
// worker count; the canonical-URL merge is a join point that runs after all
// per-source work has completed, and only merge survivors are loaded and
// hashed for clustering.
package harvest

import (
	"context"
	"net/url"
	"sort"

	"github.com/fwojciec/rulekit"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds per-source workers when Engine.Concurrency
// is unset.
const DefaultConcurrency = 4

// SourceFailure records a source document that was skipped. A single
// unreadable source never aborts harvesting of the remaining sources.
type SourceFailure struct {
	SourceURL string `json:"sourceUrl"`
	Reason    string `json:"reason"`
}

// Result holds the outcome of one harvest run.
type Result struct {
	// Images are all surviving candidates, ranked by final score.
	Images []rulekit.ImageCandidate

	// Clusters are the deduplicated near-duplicate groups.
	Clusters []rulekit.DedupeCluster

	// Skipped records per-source failures.
	Skipped []SourceFailure
}

// Engine harvests candidate images from fetched documents. The Describer
// is the fetcher-adapter boundary; Source and Hasher are optional: without
// them candidates keep HashZero and only canonical-URL deduplication
// applies. The Audit sink may be nil.
type Engine struct {
	Profile     *rulekit.GameProfile
	Describer   rulekit.Describer
	Source      rulekit.ImageSource
	Hasher      rulekit.Hasher
	Limiter     rulekit.HostLimiter
	Audit       rulekit.AuditSink
	Concurrency int
}

// sourceResult holds the outcome of processing a single document.
type sourceResult struct {
	position   int
	sourceURL  string
	candidates []rulekit.ImageCandidate
	err        error
}

// Harvest processes all sources and returns scored, deduplicated images.
// Scoring errors are local: malformed candidates are dropped with a reason
// code and unreadable sources are skipped. Cancellation stops issuing
// further per-source work but still returns partial, already-scored
// results.
func (e *Engine) Harvest(ctx context.Context, sources []rulekit.FetchedDocument) (*Result, error) {
	if e.Profile == nil {
		return nil, rulekit.Errorf(rulekit.ECONFIG, "game profile required")
	}
	if err := e.Profile.Validate(); err != nil {
		return nil, err
	}
	if e.Describer == nil {
		return nil, rulekit.Errorf(rulekit.EINVALID, "describer required")
	}

	concurrency := e.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	resultCh := make(chan sourceResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	go func() {
		for i := range sources {
			if gctx.Err() != nil {
				break
			}
			i := i
			g.Go(func() error {
				resultCh <- e.processSource(i, &sources[i])
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	// Join point: collect per-source results in source order before the
	// combined merge/cluster step.
	results := make([]*sourceResult, len(sources))
	for res := range resultCh {
		res := res
		results[res.position] = &res
	}

	out := &Result{}
	var candidates []rulekit.ImageCandidate
	for i, res := range results {
		if res == nil {
			// Never scheduled: the harvest was canceled first.
			out.Skipped = append(out.Skipped, SourceFailure{
				SourceURL: sources[i].SourceURL,
				Reason:    "canceled",
			})
			continue
		}
		if res.err != nil {
			out.Skipped = append(out.Skipped, SourceFailure{
				SourceURL: res.sourceURL,
				Reason:    rulekit.ErrorMessage(res.err),
			})
			continue
		}
		candidates = append(candidates, res.candidates...)
	}

	merged := mergeByCanonicalURL(candidates, func(dropped rulekit.ImageCandidate) {
		e.record("merge", rulekit.DecisionMerge, "duplicate_canonical_url", dropped.SourceURL)
	})

	// Hashing runs only on merge survivors: candidates sharing a canonical
	// URL are collapsed first so a duplicate image is never loaded twice.
	e.hashCandidates(ctx, merged, concurrency)

	out.Clusters = clusterByHash(merged, e.Profile.DedupeMaxDistance)
	sort.SliceStable(out.Clusters, func(i, j int) bool {
		return out.Clusters[i].Representative.FinalScore > out.Clusters[j].Representative.FinalScore
	})

	out.Images = make([]rulekit.ImageCandidate, len(merged))
	copy(out.Images, merged)
	sort.SliceStable(out.Images, func(i, j int) bool {
		return out.Images[i].FinalScore > out.Images[j].FinalScore
	})

	return out, nil
}

// processSource extracts, filters, and scores candidates from one
// document. All failures inside a source are local to it.
func (e *Engine) processSource(position int, doc *rulekit.FetchedDocument) sourceResult {
	res := sourceResult{position: position, sourceURL: doc.SourceURL}

	if err := doc.Validate(); err != nil {
		res.err = err
		return res
	}

	descriptors, err := e.Describer.Describe(doc, e.Profile)
	if err != nil {
		res.err = rulekit.Errorf(rulekit.EUNAVAILABLE, "describe %s: %v", doc.SourceURL, err)
		return res
	}

	for i := range descriptors {
		desc := &descriptors[i]

		canonical, err := Canonicalize(desc.URL)
		if err != nil {
			e.record("filter", rulekit.DecisionDrop, dropBadURL, desc.URL)
			continue
		}
		if reason := filterDescriptor(desc, canonical, e.Profile); reason != "" {
			e.record("filter", rulekit.DecisionDrop, reason, desc.URL)
			continue
		}

		cand := scoreCandidate(desc, canonical, e.Profile)
		e.record("score", rulekit.DecisionAccept, string(cand.ConfidenceBand), desc.URL)
		res.candidates = append(res.candidates, cand)
	}
	return res
}

// hashCandidates loads and hashes the merged candidates with a bounded
// fan-out. Workers write to disjoint slice slots, so no further
// synchronization is needed.
func (e *Engine) hashCandidates(ctx context.Context, candidates []rulekit.ImageCandidate, concurrency int) {
	if e.Source == nil || e.Hasher == nil || len(candidates) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range candidates {
		i := i
		g.Go(func() error {
			candidates[i].Hash = e.hashCandidate(gctx, &candidates[i])
			return nil
		})
	}
	_ = g.Wait()
}

// hashCandidate loads and hashes one candidate image. Hash failures are
// never fatal: the candidate keeps HashZero and is treated as unique.
func (e *Engine) hashCandidate(ctx context.Context, cand *rulekit.ImageCandidate) rulekit.PerceptualHash {
	if e.Source == nil || e.Hasher == nil {
		return rulekit.HashZero
	}

	if e.Limiter != nil {
		if u, err := url.Parse(cand.SourceURL); err == nil {
			if err := e.Limiter.Wait(ctx, u.Host); err != nil {
				return rulekit.HashZero
			}
		}
	}

	img, err := e.Source.Load(ctx, cand.SourceURL)
	if err != nil {
		e.record("hash", rulekit.DecisionDrop, "hash_compute_failure", cand.SourceURL)
		return rulekit.HashZero
	}
	return e.Hasher.Hash(img)
}

func (e *Engine) record(stage string, decision rulekit.Decision, reason, subject string) {
	if e.Audit == nil {
		return
	}
	e.Audit.Record(rulekit.AuditRecord{
		Stage:      stage,
		Decision:   decision,
		ReasonCode: reason,
		Subject:    subject,
	})
}
