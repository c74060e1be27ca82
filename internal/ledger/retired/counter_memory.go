package retired

import (
	"context"
	"sync"

	"carbonledger/pkg/domain"
)

// InMemoryCounter holds the retirement total in process memory.
type InMemoryCounter struct {
	mu    sync.RWMutex
	total domain.Amount
}

func NewInMemoryCounter() *InMemoryCounter {
	return &InMemoryCounter{}
}

func (c *InMemoryCounter) Add(_ context.Context, amount domain.Amount) (domain.Amount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	total, err := c.total.Add(amount)
	if err != nil {
		return 0, err
	}
	c.total = total
	return total, nil
}

func (c *InMemoryCounter) Total(_ context.Context) (domain.Amount, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total, nil
}
