package engine

import (
	"math/rand/v2"
	"sync"
)

// Dice produces die values between MinDie and MaxDie
type Dice interface {
	Roll() int
}

// RandomDice is a seedable six-sided die, safe for concurrent use
type RandomDice struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomDice creates a die seeded with seed
func NewRandomDice(seed uint64) *RandomDice {
	return &RandomDice{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Roll returns a value in [MinDie, MaxDie]
func (d *RandomDice) Roll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng.IntN(MaxDie) + MinDie
}

// SequenceDice replays a fixed list of values, wrapping at the end
type SequenceDice struct {
	values []int
	next   int
}

// NewSequenceDice creates a scripted die. It panics on an empty list.
func NewSequenceDice(values ...int) *SequenceDice {
	if len(values) == 0 {
		panic("engine: SequenceDice needs at least one value")
	}
	return &SequenceDice{values: values}
}

// Roll returns the next scripted value
func (d *SequenceDice) Roll() int {
	v := d.values[d.next%len(d.values)]
	d.next++
	return v
}
