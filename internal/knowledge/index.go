// Package knowledge holds the curated per-domain question/answer corpora and
// the word-overlap scoring used to pick grounding material for prompts.
package knowledge

import (
	"sort"
	"strings"
	"unicode"
)

type Entry struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// Scored is one corpus entry with its relevance score for a given query.
type Scored struct {
	Question string
	Answer   string
	Score    float64
}

// Scoring constants are empirical; they were tuned by hand against the
// shipped corpora and are not derived from anything.
const (
	// MatchThreshold is the minimum score BestMatch accepts.
	MatchThreshold = 0.25

	exactPhraseBonus   = 0.8
	partialPhraseBonus = 0.3
	answerOverlapBonus = 0.2

	minWordLength = 3
)

// Index is read-only after construction and safe for concurrent use.
type Index struct {
	corpora map[string][]Entry
}

func NewIndex(corpora map[string][]Entry) *Index {
	own := make(map[string][]Entry, len(corpora))
	for domain, entries := range corpora {
		own[domain] = append([]Entry(nil), entries...)
	}
	return &Index{corpora: own}
}

func (ix *Index) Domains() []string {
	out := make([]string, 0, len(ix.corpora))
	for d := range ix.corpora {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Entries returns the corpus for a domain in load order.
func (ix *Index) Entries(domain string) []Entry {
	return ix.corpora[domain]
}

// BestMatch returns the answer of the highest-scoring entry for the query,
// or false when no entry reaches MatchThreshold. Ties go to the earliest
// entry in corpus order.
func (ix *Index) BestMatch(domain, query string) (string, bool) {
	qWords := tokenize(query)
	best := 0.0
	answer := ""
	for _, e := range ix.corpora[domain] {
		if s := scoreEntry(e, query, qWords); s > best {
			best = s
			answer = e.Answer
		}
	}
	if best >= MatchThreshold {
		return answer, true
	}
	return "", false
}

// TopK returns up to k positively scored entries, highest first, with ties
// kept in corpus order. The MatchThreshold does not apply here; low-scoring
// entries are still useful as broader prompt context.
func (ix *Index) TopK(domain, query string, k int) []Scored {
	if k <= 0 {
		return nil
	}
	qWords := tokenize(query)
	var scored []Scored
	for _, e := range ix.corpora[domain] {
		if s := scoreEntry(e, query, qWords); s > 0 {
			scored = append(scored, Scored{Question: e.Question, Answer: e.Answer, Score: s})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

func scoreEntry(e Entry, rawQuery string, qWords map[string]struct{}) float64 {
	questionWords := tokenize(e.Question)
	answerWords := tokenize(e.Answer)

	common := 0
	answerCommon := 0
	for w := range qWords {
		_, inQuestion := questionWords[w]
		_, inAnswer := answerWords[w]
		if inQuestion || inAnswer {
			common++
		}
		if inAnswer {
			answerCommon++
		}
	}
	if common == 0 {
		return 0
	}

	qn := float64(len(qWords))
	if qn < 1 {
		qn = 1
	}
	score := float64(common) / qn

	lowerQuery := strings.ToLower(strings.TrimSpace(rawQuery))
	lowerQuestion := strings.ToLower(e.Question)
	if lowerQuery != "" && strings.Contains(lowerQuestion, lowerQuery) {
		score += exactPhraseBonus
	} else if half := len(lowerQuery) / 2; half > 0 &&
		(strings.Contains(lowerQuestion, lowerQuery[:half]) || strings.Contains(lowerQuestion, lowerQuery[half:])) {
		score += partialPhraseBonus
	}

	if answerCommon > 0 {
		score += answerOverlapBonus * float64(answerCommon) / qn
	}
	return score
}

// tokenize lowercases, splits on whitespace, trims punctuation, and drops
// stopwords and words shorter than minWordLength. When that filter removes
// everything (queries like "why" or "ok"), it falls back to the unfiltered
// split so the caller always has at least one candidate word.
func tokenize(s string) map[string]struct{} {
	raw := strings.Fields(strings.ToLower(s))
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}

	filtered := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len(w) < minWordLength {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		filtered[w] = struct{}{}
	}
	if len(filtered) > 0 {
		return filtered
	}

	all := make(map[string]struct{}, len(words))
	for _, w := range words {
		all[w] = struct{}{}
	}
	return all
}
