package scoring

import (
	"math"

	"guidely-quiz-service/internal/domain"
)

// DefaultRadius matches the 400x400 chart viewport.
const DefaultRadius = 160.0

var palette = []string{"#7b61ff", "#ff9ad6", "#60a5fa", "#34d399"}

// Layout places one node per category on a circle, in declaration order,
// starting at 12 o'clock. Distance from the centre grows with the score.
func (e Engine) Layout(result domain.Result, radius float64) []domain.Node {
	if radius <= 0 {
		radius = DefaultRadius
	}
	maxAbs := result.MaxAbs
	if maxAbs < 1 {
		maxAbs = e.MaxAbs(result.Scores)
	}

	n := len(e.categories)
	nodes := make([]domain.Node, 0, n)
	for i, c := range e.categories {
		frac := Fraction(result.Scores[c], maxAbs)
		angle := float64(i)/float64(n)*2*math.Pi - math.Pi/2
		nodes = append(nodes, domain.Node{
			Category: c,
			Label:    c.Label(),
			Fraction: frac,
			Percent:  ToPercentage(result.Scores[c], maxAbs),
			X:        radius * frac * math.Cos(angle),
			Y:        radius * frac * math.Sin(angle),
			Size:     18 + 30*frac,
			Color:    palette[i%len(palette)],
		})
	}
	return nodes
}
