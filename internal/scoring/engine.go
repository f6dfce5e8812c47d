// Package scoring turns Likert answers into per-stream scores, rankings and
// display percentages. Everything here is a pure function of its inputs.
package scoring

import (
	"math"
	"sort"

	"guidely-quiz-service/internal/domain"
)

// Engine scores against a fixed, ordered category set.
type Engine struct {
	categories []domain.Category
}

// New returns an engine for the given declaration order.
func New(categories []domain.Category) Engine {
	cats := make([]domain.Category, len(categories))
	copy(cats, categories)
	return Engine{categories: cats}
}

// Default scores against domain.Categories.
func Default() Engine {
	return New(domain.Categories)
}

// Categories returns the declaration order used for ties and layout.
func (e Engine) Categories() []domain.Category {
	out := make([]domain.Category, len(e.categories))
	copy(out, e.categories)
	return out
}

// ComputeScores accumulates answer × weight per category. Unanswered questions
// contribute nothing and every declared category is present in the result.
func (e Engine) ComputeScores(questions []domain.Question, answers domain.AnswerSet) domain.ScoreVector {
	scores := make(domain.ScoreVector, len(e.categories))
	for _, c := range e.categories {
		scores[c] = 0
	}
	for _, q := range questions {
		value, ok := answers[q.ID]
		if !ok {
			continue
		}
		for c, weight := range q.Weights {
			// Weights outside the declared set have no slot.
			if _, declared := scores[c]; !declared {
				continue
			}
			scores[c] += value * weight
		}
	}
	return scores
}

// Rank orders categories by score, highest first. Equal scores keep
// declaration order.
func (e Engine) Rank(scores domain.ScoreVector) []domain.RankedCategory {
	ranking := make([]domain.RankedCategory, 0, len(e.categories))
	for _, c := range e.categories {
		ranking = append(ranking, domain.RankedCategory{Category: c, Score: scores[c]})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Score > ranking[j].Score
	})
	return ranking
}

// MaxAbs is the largest absolute score across declared categories, never
// below 1.
func (e Engine) MaxAbs(scores domain.ScoreVector) int {
	largest := 1
	for _, c := range e.categories {
		s := scores[c]
		if s < 0 {
			s = -s
		}
		if s > largest {
			largest = s
		}
	}
	return largest
}

// Percentages maps every declared category to its display percentage using a
// single shared maxAbs.
func (e Engine) Percentages(scores domain.ScoreVector) map[domain.Category]int {
	maxAbs := e.MaxAbs(scores)
	out := make(map[domain.Category]int, len(e.categories))
	for _, c := range e.categories {
		out[c] = ToPercentage(scores[c], maxAbs)
	}
	return out
}

// Evaluate runs a full scoring pass.
func (e Engine) Evaluate(questions []domain.Question, answers domain.AnswerSet) domain.Result {
	scores := e.ComputeScores(questions, answers)
	return e.Summarize(scores)
}

// Summarize derives ranking and percentages from an existing vector, e.g. a
// stored snapshot.
func (e Engine) Summarize(scores domain.ScoreVector) domain.Result {
	full := make(domain.ScoreVector, len(e.categories))
	for _, c := range e.categories {
		full[c] = scores[c]
	}
	return domain.Result{
		Scores:      full,
		Ranking:     e.Rank(full),
		Percentages: e.Percentages(full),
		MaxAbs:      e.MaxAbs(full),
	}
}

// ToPercentage remaps score from [-maxAbs, maxAbs] onto [0, 100], rounding
// half up. maxAbs below 1 is treated as 1.
func ToPercentage(score, maxAbs int) int {
	if maxAbs < 1 {
		maxAbs = 1
	}
	ratio := float64(score+maxAbs) / float64(2*maxAbs)
	return int(math.Floor(ratio*100 + 0.5))
}

// Fraction is the unrounded [0, 1] position used by the radial chart.
func Fraction(score, maxAbs int) float64 {
	if maxAbs < 1 {
		maxAbs = 1
	}
	return float64(score+maxAbs) / float64(2*maxAbs)
}

// TopN returns the first n entries of a ranking.
func TopN(ranking []domain.RankedCategory, n int) []domain.RankedCategory {
	if n < 0 {
		n = 0
	}
	if n > len(ranking) {
		n = len(ranking)
	}
	out := make([]domain.RankedCategory, n)
	copy(out, ranking[:n])
	return out
}
