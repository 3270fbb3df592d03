package chat

import (
	"sort"
	"time"
)

// Message is one line of a ride chat as served by the chat history API.
type Message struct {
	ID         string         `json:"id"`
	RideID     string         `json:"rideId"`
	Body       string         `json:"body"`
	SenderType string         `json:"senderType"`
	Kind       string         `json:"messageType"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Page is one page of chat history, newest message first.
type Page struct {
	Messages   []Message `json:"messages"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

// History is the cached, paginated chat of a ride. Pages[0] holds the newest messages.
type History struct {
	Pages []Page `json:"pages"`
}

// FirstPage returns the newest page, if any.
func (h *History) FirstPage() (Page, bool) {
	if h == nil || len(h.Pages) == 0 {
		return Page{}, false
	}
	return h.Pages[0], true
}

// Newest returns the creation time of the newest cached message.
func (h *History) Newest() (time.Time, bool) {
	var newest time.Time
	found := false
	for _, p := range h.Pages {
		for _, m := range p.Messages {
			if !found || m.CreatedAt.After(newest) {
				newest = m.CreatedAt
				found = true
			}
		}
	}
	return newest, found
}

// PrependUnseen returns a copy of h with every fetched message whose id is not
// already on the first page prepended to that page, newest first. The second
// result is the number of messages added; when it is zero h is returned as is.
func (h *History) PrependUnseen(fetched []Message) (*History, int) {
	first, ok := h.FirstPage()
	if !ok {
		return h, 0
	}

	seen := make(map[string]struct{}, len(first.Messages))
	for _, m := range first.Messages {
		seen[m.ID] = struct{}{}
	}

	var fresh []Message
	for _, m := range fetched {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		fresh = append(fresh, m)
	}
	if len(fresh) == 0 {
		return h, 0
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].CreatedAt.After(fresh[j].CreatedAt)
	})

	merged := Page{
		Messages:   make([]Message, 0, len(fresh)+len(first.Messages)),
		NextCursor: first.NextCursor,
	}
	merged.Messages = append(merged.Messages, fresh...)
	merged.Messages = append(merged.Messages, first.Messages...)

	out := &History{Pages: make([]Page, len(h.Pages))}
	copy(out.Pages, h.Pages)
	out.Pages[0] = merged
	return out, len(fresh)
}
