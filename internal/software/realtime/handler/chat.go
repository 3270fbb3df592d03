package handler

import (
	"context"

	"ride-hail-realtime/internal/general/contracts"
)

// chatMessage catches the ride's chat up and notifies only for lines written
// by the other side. A failed sync is logged; the cache has already been
// invalidated by the syncer in that case.
func (s *Set) chatMessage(ctx context.Context, p *contracts.ChatMessage) error {
	if err := s.chat.Sync(ctx, p.RideID); err != nil {
		s.logger.Warn(ctx, "chat_sync_failed", "chat catch-up failed", map[string]any{"error": err.Error()})
	}

	if !s.role.IsCounterparty(string(p.SenderType)) {
		return nil
	}

	title := "New message from your driver"
	if p.SenderType == contracts.SenderRider {
		title = "New message from your rider"
	}
	data := notificationData(contracts.TypeChatMessage, p.RideID)
	data["chatMessageId"] = p.ID
	s.notify(ctx, title, p.Body, data)
	return nil
}
