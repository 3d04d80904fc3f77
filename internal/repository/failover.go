package repository

import (
	"context"
	"sync/atomic"
	"time"

	"stolik/internal/domain"
	"stolik/internal/models"

	"github.com/rs/zerolog"
)

// FailoverSlotCache prefers the primary (Redis) cache and falls back
// to the in-memory one when it errors, probing the primary again
// after a minute.
type FailoverSlotCache struct {
	primary   domain.SlotCache
	fallback  domain.SlotCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverSlotCache(primary, fallback domain.SlotCache, logger *zerolog.Logger) *FailoverSlotCache {
	return &FailoverSlotCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

const recoveryProbeInterval = time.Minute

func (c *FailoverSlotCache) markDown(err error) {
	c.logger.Error().Err(err).Msg("primary slot cache failed, falling back to memory")
	c.isDown.Store(true)
	c.lastCheck.Store(time.Now().UnixNano())
}

func (c *FailoverSlotCache) shouldProbe() bool {
	return time.Since(time.Unix(0, c.lastCheck.Load())) > recoveryProbeInterval
}

func (c *FailoverSlotCache) GetDay(ctx context.Context, tableID, date string) ([]models.BookingWindow, error) {
	if !c.isDown.Load() {
		windows, err := c.primary.GetDay(ctx, tableID, date)
		if err == nil {
			return windows, nil
		}
		c.markDown(err)
	} else if c.shouldProbe() {
		windows, err := c.primary.GetDay(ctx, tableID, date)
		if err == nil {
			c.isDown.Store(false)
			return windows, nil
		}
		c.lastCheck.Store(time.Now().UnixNano())
	}
	return c.fallback.GetDay(ctx, tableID, date)
}

func (c *FailoverSlotCache) SetDay(ctx context.Context, tableID, date string, windows []models.BookingWindow) error {
	if !c.isDown.Load() {
		if err := c.primary.SetDay(ctx, tableID, date, windows); err != nil {
			c.markDown(err)
		} else {
			return nil
		}
	}
	return c.fallback.SetDay(ctx, tableID, date, windows)
}

// Invalidate must reach both sides: a stale fallback entry would
// survive a failover window otherwise.
func (c *FailoverSlotCache) Invalidate(ctx context.Context, tableID, date string) error {
	var primaryErr error
	if !c.isDown.Load() {
		if primaryErr = c.primary.Invalidate(ctx, tableID, date); primaryErr != nil {
			c.markDown(primaryErr)
		}
	}
	if err := c.fallback.Invalidate(ctx, tableID, date); err != nil {
		return err
	}
	return primaryErr
}
