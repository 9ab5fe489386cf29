package elgamal

import (
	"math"

	"github.com/gtank/ristretto255"
)

// SolveDiscreteLog finds m in [0, maxAmount] such that m*G equals msgPoint,
// as produced by DecryptToPoint.
//
// Uses Baby-Step Giant-Step: O(sqrt(maxAmount)) time and space.
// Returns (m, true, nil) on success and (0, false, nil) if m > maxAmount.
func SolveDiscreteLog(msgPoint *ristretto255.Element, maxAmount uint64) (uint64, bool, error) {
	n := uint64(math.Ceil(math.Sqrt(float64(maxAmount + 1))))

	// Baby steps: table[encoding of i*G] = i for i in [0, n].
	table := make(map[[32]byte]uint64, n+1)
	one := ristretto255.NewGeneratorElement()
	baby := ristretto255.NewIdentityElement()
	var key [32]byte
	copy(key[:], baby.Encode(nil))
	table[key] = 0
	for i := uint64(1); i <= n; i++ {
		baby.Add(baby, one)
		copy(key[:], baby.Encode(nil))
		table[key] = i
	}

	// Giant steps: check msgPoint - j*n*G for j in [0, maxAmount/n + 1].
	stride := ristretto255.NewElement().ScalarBaseMult(scalarFromUint64(n))
	giant := ristretto255.NewElement().Set(msgPoint)
	maxJ := maxAmount/n + 1
	for j := uint64(0); j <= maxJ; j++ {
		copy(key[:], giant.Encode(nil))
		if babyI, ok := table[key]; ok {
			if result := j*n + babyI; result <= maxAmount {
				return result, true, nil
			}
		}
		if j < maxJ {
			giant.Subtract(giant, stride)
		}
	}
	return 0, false, nil
}
