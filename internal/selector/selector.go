// Package selector picks the WhatsApp number a visitor is sent to.
package selector

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/zaplinker/backend/internal/models"
)

// ErrNoActiveNumbers is returned when a workspace has nothing to redirect to.
var ErrNoActiveNumbers = errors.New("no active numbers")

// Picker draws weighted random numbers. Safe for concurrent use.
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPicker creates a picker seeded from the clock.
func NewPicker() *Picker {
	now := uint64(time.Now().UnixNano())
	return NewPickerWithSource(rand.NewPCG(now, now>>17|1))
}

// NewPickerWithSource creates a picker over src, for deterministic tests.
func NewPickerWithSource(src rand.Source) *Picker {
	return &Picker{rng: rand.New(src)}
}

// Pick chooses one active number with probability proportional to its weight.
// Inactive numbers are skipped and a weight below 1 counts as 1.
func (p *Picker) Pick(numbers []models.WhatsappNumber) (*models.WhatsappNumber, error) {
	total := 0
	for i := range numbers {
		if numbers[i].IsActive {
			total += weightOf(numbers[i])
		}
	}
	if total == 0 {
		return nil, ErrNoActiveNumbers
	}

	p.mu.Lock()
	r := p.rng.IntN(total)
	p.mu.Unlock()

	for i := range numbers {
		if !numbers[i].IsActive {
			continue
		}
		r -= weightOf(numbers[i])
		if r < 0 {
			return &numbers[i], nil
		}
	}
	// unreachable while total matches the loop above
	return nil, ErrNoActiveNumbers
}

func weightOf(n models.WhatsappNumber) int {
	if n.Weight < 1 {
		return 1
	}
	return n.Weight
}
