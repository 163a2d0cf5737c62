package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
)

type ErrInvalidRatio struct {
	error
}

func NewErrInvalidRatio(ratio float64) *ErrInvalidRatio {
	return &ErrInvalidRatio{fmt.Errorf("split ratio %v is outside (0, 1)", ratio)}
}

// NewRand returns a deterministic source for the given seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// Split partitions the rows at random without replacement. ratio is the
// fraction of rows assigned to the test set and is rounded up to a whole row.
func Split(d *Dataset, ratio float64, rng *rand.Rand) (train, test *Dataset, err error) {
	if math.IsNaN(ratio) || ratio <= 0 || ratio >= 1 {
		return nil, nil, NewErrInvalidRatio(ratio)
	}

	n := d.Len()
	nTest := int(math.Ceil(ratio * float64(n)))
	if nTest == 0 || nTest >= n {
		return nil, nil, fmt.Errorf("split ratio %v over %d rows leaves an empty partition", ratio, n)
	}

	indices := rng.Perm(n)
	return d.Subset(indices[nTest:]), d.Subset(indices[:nTest]), nil
}
