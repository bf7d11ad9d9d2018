package hasher

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const DefaultCost = 12

type Bcrypt struct {
	cost int
}

func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}

	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(password string) ([]byte, error) {
	const op = "hasher.Hash"

	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return hash, nil
}

// Compare возвращает false и при несовпадении, и при битом хеше.
func (b *Bcrypt) Compare(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
