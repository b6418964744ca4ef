package leitner

import (
	"time"

	"github.com/phrazzld/lexibox/internal/domain"
)

// nextLevel applies the transition policy. The caller has validated the
// rating; level is clamped into [1, maxBox] before and after the move.
func nextLevel(level int, rating domain.Rating, maxBox int) int {
	level = clamp(level, maxBox)

	switch rating {
	case domain.RatingAgain:
		return 1
	case domain.RatingHard:
		return clamp(level-1, maxBox)
	case domain.RatingGood:
		return clamp(level+1, maxBox)
	case domain.RatingEasy:
		return clamp(level+2, maxBox)
	default:
		return level
	}
}

// interval returns the wait for the given box.
func interval(level int, params *Params) time.Duration {
	return params.Intervals[clamp(level, params.MaxBox())-1]
}

func clamp(level, maxBox int) int {
	if level < 1 {
		return 1
	}
	if level > maxBox {
		return maxBox
	}
	return level
}
