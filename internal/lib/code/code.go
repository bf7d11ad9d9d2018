package code

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	Min = 10000
	Max = 99999
)

var upper = big.NewInt(Max + 1)

// * Generate возвращает случайный пятизначный код.
// Значения меньше Min перевыбираются, поэтому 0..9999 не выпадают никогда.
func Generate() (int, error) {
	const op = "code.Generate"

	code := 0
	for code < Min {
		n, err := rand.Int(rand.Reader, upper)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}

		code = int(n.Int64())
	}

	return code, nil
}
