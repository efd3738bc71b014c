package services

import (
	"sort"
	"time"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

// recencyWindowDays is the age after which a document earns no recency bonus.
const recencyWindowDays = 30.0

// FusionOptions configures Combine.
type FusionOptions struct {
	// Limit truncates the fused list. Zero keeps everything.
	Limit int

	// RecencyWeight scales the recency bonus. Negative values count as zero.
	RecencyWeight float64

	// MultiHitBonus is added when a document appears in more than one set.
	MultiHitBonus float64

	// LexicalBaseScore is the base score of a hit without a similarity.
	LexicalBaseScore float64

	// Now is the reference time for document age.
	Now time.Time
}

// DefaultFusionOptions returns options with the standard weights.
func DefaultFusionOptions(now time.Time) FusionOptions {
	return FusionOptions{
		RecencyWeight:    domain.DefaultRecencyWeight,
		MultiHitBonus:    domain.DefaultMultiHitBonus,
		LexicalBaseScore: domain.DefaultLexicalBaseScore,
		Now:              now,
	}
}

type fusedEntry struct {
	doc        *domain.KnowledgeDocument
	base       float64
	similarity *float64
	sets       int
	bestRank   int
}

// Combine merges ranked result sets into a single list.
//
// Documents are deduplicated by ID. The base score is the best score the
// document earned in any set: its similarity for vector hits, otherwise
// LexicalBaseScore. A linearly decaying recency bonus is added for documents
// younger than 30 days, and MultiHitBonus for documents found by more than
// one set. Ties keep the best input rank, then order by ID. Combine is pure.
func Combine(sets [][]domain.ScoredDocument, opts FusionOptions) []domain.ScoredDocument {
	entries := make(map[string]*fusedEntry)
	order := make([]string, 0)

	for _, set := range sets {
		seen := make(map[string]bool, len(set))
		for rank, hit := range set {
			if hit.Document == nil {
				continue
			}
			id := hit.Document.ID
			base := opts.LexicalBaseScore
			if hit.Similarity != nil {
				base = *hit.Similarity
			}

			e, ok := entries[id]
			if !ok {
				e = &fusedEntry{doc: hit.Document, base: base, bestRank: rank}
				entries[id] = e
				order = append(order, id)
			} else {
				if base > e.base {
					e.base = base
				}
				if rank < e.bestRank {
					e.bestRank = rank
				}
			}
			if hit.Similarity != nil && (e.similarity == nil || *hit.Similarity > *e.similarity) {
				sim := *hit.Similarity
				e.similarity = &sim
			}
			if !seen[id] {
				seen[id] = true
				e.sets++
			}
		}
	}

	type ranked struct {
		scored   domain.ScoredDocument
		bestRank int
	}
	results := make([]ranked, 0, len(order))
	for _, id := range order {
		e := entries[id]
		score := e.base + recencyBonus(e.doc.CreatedAt, opts.Now, opts.RecencyWeight)
		if e.sets > 1 {
			score += opts.MultiHitBonus
		}
		results = append(results, ranked{
			scored: domain.ScoredDocument{
				Document:   e.doc,
				Score:      score,
				Similarity: e.similarity,
			},
			bestRank: e.bestRank,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.scored.Score != b.scored.Score {
			return a.scored.Score > b.scored.Score
		}
		if a.bestRank != b.bestRank {
			return a.bestRank < b.bestRank
		}
		return a.scored.Document.ID < b.scored.Document.ID
	})

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	out := make([]domain.ScoredDocument, len(results))
	for i, r := range results {
		out[i] = r.scored
	}
	return out
}

// recencyBonus returns max(0, (30 - ageDays) / 30) * weight. Documents
// without a creation time earn nothing; future timestamps count as age zero.
func recencyBonus(created, now time.Time, weight float64) float64 {
	if created.IsZero() || weight <= 0 {
		return 0
	}
	ageDays := now.Sub(created).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	factor := (recencyWindowDays - ageDays) / recencyWindowDays
	if factor <= 0 {
		return 0
	}
	return factor * weight
}
