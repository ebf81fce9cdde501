package features

import (
	"fmt"
	"math"
)

// Split partitions a frame into a contiguous training prefix and test
// suffix. The data is temporal, so the split key is order itself: no
// randomization, no shuffling.
type Split struct {
	Train Frame `json:"train"`
	Test  Frame `json:"test"`
}

// NewSplit cuts the frame at floor(TrainFraction * len). It fails when
// the training segment carries no usable target, which blocks model
// fitting upstream of either forecaster.
func NewSplit(frame Frame) (*Split, error) {
	n := frame.Len()
	cut := int(math.Floor(TrainFraction * float64(n)))

	train := Frame{Symbol: frame.Symbol, Rows: frame.Rows[:cut]}
	test := Frame{Symbol: frame.Symbol, Rows: frame.Rows[cut:]}

	if err := validateTrainTargets(train); err != nil {
		return nil, err
	}

	return &Split{Train: train, Test: test}, nil
}

// validateTrainTargets ensures the training target column is non-empty
// and fully populated.
func validateTrainTargets(train Frame) error {
	if train.Len() == 0 {
		return fmt.Errorf("training segment is empty")
	}
	for i, r := range train.Rows {
		if math.IsNaN(r.Close) || math.IsInf(r.Close, 0) {
			return fmt.Errorf("training target missing at row %d (%s)", i, r.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// HasTestData reports whether the test segment is non-empty. Accuracy
// scoring only runs when it is.
func (s *Split) HasTestData() bool {
	return s.Test.Len() > 0
}
