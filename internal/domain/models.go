package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Category is one of the educational streams a student is scored against.
type Category int

const (
	Science Category = iota
	Commerce
	Arts
	Vocational
)

// Categories is the declared stream order. Ranking ties and the radial chart
// both follow it.
var Categories = []Category{Science, Commerce, Arts, Vocational}

var categoryKeys = [...]string{"science", "commerce", "arts", "vocational"}

var categoryLabels = [...]string{"Science", "Commerce", "Arts", "Vocational"}

// Valid reports whether c belongs to the declared set.
func (c Category) Valid() bool {
	return c >= 0 && int(c) < len(categoryKeys)
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryKeys[c]
}

// Label is the human readable stream name.
func (c Category) Label() string {
	if !c.Valid() {
		return c.String()
	}
	return categoryLabels[c]
}

// ParseCategory maps a content key such as "science" to its Category.
func ParseCategory(key string) (Category, error) {
	for i, k := range categoryKeys {
		if k == key {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, key)
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return []byte(categoryKeys[c]), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Question is a Likert statement with per-stream influence weights.
// Streams missing from Weights have weight zero.
type Question struct {
	ID      string           `json:"id"`
	Text    string           `json:"text"`
	Weights map[Category]int `json:"weights"`
}

// AnswerOption is one entry of the shared Likert scale.
type AnswerOption struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// AnswerSet maps question IDs to the chosen Likert value.
type AnswerSet map[string]int

// Clone returns an independent copy.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// ScoreVector holds an accumulator for every declared category.
type ScoreVector map[Category]int

// RankedCategory is one row of a ranking.
type RankedCategory struct {
	Category Category `json:"category"`
	Score    int      `json:"score"`
}

// Result bundles everything derived from one scoring pass.
type Result struct {
	Scores      ScoreVector      `json:"scores"`
	Ranking     []RankedCategory `json:"ranking"`
	Percentages map[Category]int `json:"percentages"`
	MaxAbs      int              `json:"maxAbs"`
}

// SessionState tracks where a student is in the quiz.
type SessionState string

const (
	StateUnanswered SessionState = "unanswered"
	StateInProgress SessionState = "in_progress"
	StateSubmitted  SessionState = "submitted"
)

// ScoreUpdate is pushed to subscribers whenever a session changes.
type ScoreUpdate struct {
	UserID    string       `json:"userId"`
	State     SessionState `json:"state"`
	Attempt   int          `json:"attempt"`
	Answered  int          `json:"answered"`
	Required  int          `json:"required"`
	Total     int          `json:"total"`
	Result    Result       `json:"result"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Snapshot is the score vector persisted when a student submits.
type Snapshot struct {
	Scores      ScoreVector
	SubmittedAt time.Time
}

// MarshalScores encodes a score vector as the {"science":3,...} blob kept by
// result stores.
func MarshalScores(v ScoreVector) ([]byte, error) {
	return json.Marshal(v)
}

// UnmarshalScores decodes a stored blob. Declared categories missing from the
// blob are filled with zero.
func UnmarshalScores(data []byte) (ScoreVector, error) {
	v := ScoreVector{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	for _, c := range Categories {
		if _, ok := v[c]; !ok {
			v[c] = 0
		}
	}
	return v, nil
}

// CareerMap lists the outcomes a stream leads to.
type CareerMap struct {
	Stream           Category `json:"stream"`
	Title            string   `json:"title"`
	Industries       []string `json:"industries"`
	GovtExams        []string `json:"govtExams"`
	PrivateJobs      []string `json:"privateJobs"`
	HigherStudies    []string `json:"higherStudies"`
	Entrepreneurship []string `json:"entrepreneurship"`
}

// Comparison pairs a leading stream with its match percentage and careers.
type Comparison struct {
	Stream  Category  `json:"stream"`
	Label   string    `json:"label"`
	Percent int       `json:"percent"`
	Careers CareerMap `json:"careers"`
}

// Node is one point of the radial stream chart.
type Node struct {
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Fraction float64  `json:"fraction"`
	Percent  int      `json:"percent"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Size     float64  `json:"size"`
	Color    string   `json:"color"`
}

// Report is what a student sees after submitting.
type Report struct {
	UserID      string       `json:"userId"`
	Quizzed     bool         `json:"quizzed"`
	SubmittedAt time.Time    `json:"submittedAt,omitempty"`
	Result      Result       `json:"result"`
	Compare     []Comparison `json:"compare,omitempty"`
	Graph       []Node       `json:"graph,omitempty"`
}
