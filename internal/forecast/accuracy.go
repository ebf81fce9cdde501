package forecast

import (
	"fmt"
)

// Direction is the binarized day-over-day movement: 1 for up, 0 for
// flat or down. Ties deliberately count as down; the mapping matches
// the reference scoring and must not be "fixed".
type Direction int

const (
	DirectionDown Direction = 0
	DirectionUp   Direction = 1
)

// Directions converts a value sequence into day-over-day directions.
// The result is one element shorter than the input, since a direction
// needs a successor.
func Directions(values []float64) []Direction {
	if len(values) < 2 {
		return nil
	}
	out := make([]Direction, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i]-values[i-1] > 0 {
			out[i-1] = DirectionUp
		} else {
			out[i-1] = DirectionDown
		}
	}
	return out
}

// DirectionalAccuracy scores how often the predicted movement direction
// matches the realized one, over the overlap of the two direction
// sequences, as a percentage in [0, 100].
func DirectionalAccuracy(actual, predicted []float64) (float64, error) {
	actualDirs := Directions(actual)
	predictedDirs := Directions(predicted)

	n := len(actualDirs)
	if len(predictedDirs) < n {
		n = len(predictedDirs)
	}
	if n == 0 {
		return 0, fmt.Errorf("no overlapping direction steps to score")
	}

	matches := 0
	for i := 0; i < n; i++ {
		if actualDirs[i] == predictedDirs[i] {
			matches++
		}
	}
	return float64(matches) / float64(n) * 100, nil
}

// FormatAccuracy renders the accuracy line used in the report summary.
func FormatAccuracy(accuracy float64) string {
	return fmt.Sprintf("Directional accuracy: %.2f%%", accuracy)
}
