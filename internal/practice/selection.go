package practice

import "math/rand/v2"

// Shuffler permutes n elements in place. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// DefaultShuffler draws from the process-wide generator
func DefaultShuffler() Shuffler {
	return globalShuffler{}
}

// SelectQuestions returns a uniform random ordering of up to count ids from
// pool. An empty pool yields an empty order and no error.
func SelectQuestions(pool []uint, count int, shuffler Shuffler) ([]uint, error) {
	if count <= 0 {
		return nil, ErrInvalidQuestionCount
	}
	if shuffler == nil {
		shuffler = globalShuffler{}
	}

	seen := make(map[uint]struct{}, len(pool))
	ids := make([]uint, 0, len(pool))
	for _, id := range pool {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	shuffler.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	if len(ids) > count {
		ids = ids[:count]
	}
	return ids, nil
}
