package dragdrop

import (
	"math"

	"pagecraft/internal/canvas"
)

// Strategy selects how drop candidates are scored against the pointer and the
// dragged rectangle. All strategies only consider candidates that overlap the
// pointer or the dragged rectangle; ties go to the topmost candidate in paint
// order.
type Strategy string

const (
	// StrategyPointerWithin picks the smallest rectangle containing the
	// pointer (the most specific droppable under the cursor).
	StrategyPointerWithin Strategy = "pointer-within"
	// StrategyClosestCenter picks the candidate whose center is nearest the
	// dragged rectangle's center.
	StrategyClosestCenter Strategy = "closest-center"
	// StrategyClosestCorner picks the candidate minimizing the summed
	// distance between corresponding corners.
	StrategyClosestCorner Strategy = "closest-corner"
	// StrategyRectIntersection picks the candidate with the largest overlap
	// area with the dragged rectangle.
	StrategyRectIntersection Strategy = "rect-intersection"
)

// Valid reports whether s names a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyPointerWithin, StrategyClosestCenter, StrategyClosestCorner, StrategyRectIntersection:
		return true
	}
	return false
}

// candidate is one droppable considered during a move recomputation.
type candidate struct {
	id   string
	rect canvas.Rect
}

// bestCandidate scores candidates (given in paint order, bottom to top) and
// returns the winner's id, or "" when nothing overlaps. Lower score wins; a
// later candidate wins on equal score, which makes the topmost element take
// the drop.
func bestCandidate(cands []candidate, strategy Strategy, pointer canvas.Position, dragRect canvas.Rect) string {
	bestID := ""
	bestScore := math.Inf(1)

	for _, c := range cands {
		overlaps := c.rect.Contains(pointer) || c.rect.Intersects(dragRect)
		if !overlaps {
			continue
		}

		var score float64
		switch strategy {
		case StrategyPointerWithin:
			if !c.rect.Contains(pointer) {
				continue
			}
			score = c.rect.Width * c.rect.Height
		case StrategyClosestCenter:
			score = distance(c.rect.Center(), dragRect.Center())
		case StrategyClosestCorner:
			a, b := c.rect.Corners(), dragRect.Corners()
			for i := range a {
				score += distance(a[i], b[i])
			}
		case StrategyRectIntersection:
			area := c.rect.IntersectionArea(dragRect)
			if area <= 0 {
				continue
			}
			score = -area
		default:
			continue
		}

		if score <= bestScore {
			bestScore = score
			bestID = c.id
		}
	}
	return bestID
}

func distance(a, b canvas.Position) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
