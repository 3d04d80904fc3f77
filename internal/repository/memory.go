package repository

import (
	"context"
	"sync"
	"time"

	"stolik/internal/models"
)

// MemorySlotCache is the in-process fallback used when Redis is down
// or not configured.
type MemorySlotCache struct {
	entries sync.Map
	ttl     time.Duration
}

type memoryEntry struct {
	windows   []models.BookingWindow
	expiresAt time.Time
}

func NewMemorySlotCache(ttl time.Duration) *MemorySlotCache {
	if ttl <= 0 {
		ttl = models.DefaultSlotCacheTTL
	}
	return &MemorySlotCache{ttl: ttl}
}

func (c *MemorySlotCache) GetDay(ctx context.Context, tableID, date string) ([]models.BookingWindow, error) {
	val, ok := c.entries.Load(slotKey(tableID, date))
	if !ok {
		return nil, nil
	}
	entry := val.(*memoryEntry)
	if time.Now().After(entry.expiresAt) {
		c.entries.Delete(slotKey(tableID, date))
		return nil, nil
	}
	return entry.windows, nil
}

func (c *MemorySlotCache) SetDay(ctx context.Context, tableID, date string, windows []models.BookingWindow) error {
	if windows == nil {
		windows = []models.BookingWindow{}
	}
	c.entries.Store(slotKey(tableID, date), &memoryEntry{
		windows:   windows,
		expiresAt: time.Now().Add(c.ttl),
	})
	return nil
}

func (c *MemorySlotCache) Invalidate(ctx context.Context, tableID, date string) error {
	c.entries.Delete(slotKey(tableID, date))
	return nil
}
