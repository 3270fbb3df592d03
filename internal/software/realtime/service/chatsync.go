package service

import (
	"context"
	"fmt"

	"ride-hail-realtime/internal/domain/chat"
	"ride-hail-realtime/internal/general/logger"
	"ride-hail-realtime/internal/ports"
)

// ChatSync merges messages the client missed into a ride's cached chat.
type ChatSync struct {
	api    ports.RideAPI
	cache  ports.QueryCache
	logger *logger.Logger
}

func NewChatSync(api ports.RideAPI, cache ports.QueryCache, log *logger.Logger) *ChatSync {
	return &ChatSync{api: api, cache: cache, logger: log}
}

// Sync fetches messages newer than the newest cached one and prepends those
// not already on the first page. Without a cached first page the entry is
// invalidated so the next reader loads it from scratch. A fetch error also
// invalidates; the cache is never partially merged.
func (c *ChatSync) Sync(ctx context.Context, rideID string) error {
	key := ports.ChatKey(rideID)

	v, _ := c.cache.Get(key)
	history, _ := v.(*chat.History)
	if _, ok := history.FirstPage(); !ok {
		c.cache.Invalidate(key)
		return nil
	}

	var q ports.ChatQuery
	if newest, ok := history.Newest(); ok {
		q.Since = newest
	}

	fetched, err := c.api.ChatMessages(ctx, rideID, q)
	if err != nil {
		c.cache.Invalidate(key)
		return fmt.Errorf("chat sync %s: %w", rideID, err)
	}

	merged, added := history.PrependUnseen(fetched)
	if added == 0 {
		return nil
	}
	c.cache.Set(key, merged)
	c.logger.Debug(ctx, "chat_synced", "chat caught up", map[string]any{"added": added})
	return nil
}
