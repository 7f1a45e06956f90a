// Package feed defines the chat-platform seam: the inbound message stream
// the tracker consumes and the outbound notification/status-board surfaces
// it writes to. The actual chat binding lives outside this repository; any
// bridge that satisfies these interfaces (or posts to the HTTP ingest
// endpoint) can drive harvestd.
package feed

import (
	"context"
	"time"
)

// Message is one line received from the chat feed.
type Message struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	At        time.Time `json:"at"` // source timestamp, UTC
}

// Source provides live messages and bounded history for catch-up replay.
type Source interface {
	// Messages returns a channel of live feed messages. The channel is
	// closed when ctx is done or the source shuts down.
	Messages(ctx context.Context) <-chan Message
	// History returns up to limit messages from channelID strictly after
	// afterID, oldest first. An empty afterID means from the beginning of
	// the retained window.
	History(ctx context.Context, channelID, afterID string, limit int) ([]Message, error)
}

// Notifier delivers a plain notification line to a named channel.
type Notifier interface {
	Send(ctx context.Context, channelID, text string) error
}

// Board manages the single mutable status-board message. Publish edits the
// message with the given id in place; when the id is empty or no longer
// resolves (deleted externally), a new message is created. The id of the
// message that now holds the content is returned so the caller can persist it.
type Board interface {
	Publish(ctx context.Context, channelID, messageID, content string) (string, error)
}
