package track

import (
	"context"
	"errors"

	"github.com/loykin/harvestd/internal/feed"
	"github.com/loykin/harvestd/internal/metrics"
)

// HandleMessage runs one feed message through the filter, parser, and state
// machine. Messages from the wrong channel or author, and lines that do not
// parse as lifecycle events, are dropped without advancing the checkpoint.
func (t *Tracker) HandleMessage(ctx context.Context, msg feed.Message) {
	if t.chat.FeedChannel != "" && msg.ChannelID != t.chat.FeedChannel {
		return
	}
	if t.chat.FeedAuthor != "" && msg.Author != t.chat.FeedAuthor {
		return
	}
	ev, ok := feed.Parse(msg)
	if !ok {
		metrics.IncFeedLine("rejected")
		return
	}
	metrics.IncFeedLine("event")
	if !t.Apply(ctx, ev) {
		return
	}

	// Advance only after the event is applied (and therefore persisted);
	// a crash in between replays the message, which is idempotent.
	t.mu.Lock()
	t.lastMessageID = msg.ID
	if err := t.persistLocked(); err != nil {
		t.logger.Error("persist checkpoint", "message_id", msg.ID, "error", err)
	}
	t.mu.Unlock()
}

// CatchUp replays feed history newer than the checkpoint, oldest first,
// bounded by the configured limit. It runs before live consumption so
// startup sees events in order.
func (t *Tracker) CatchUp(ctx context.Context, src feed.Source) error {
	if src == nil {
		return nil
	}
	t.mu.Lock()
	after := t.lastMessageID
	t.mu.Unlock()

	msgs, err := src.History(ctx, t.chat.FeedChannel, after, t.catchup)
	if err != nil {
		return err
	}
	if len(msgs) > 0 {
		t.logger.Info("replaying missed feed messages", "count", len(msgs), "after", after)
	}
	for _, m := range msgs {
		t.HandleMessage(ctx, m)
	}
	return nil
}

// Run consumes the live feed until the context is cancelled or the source
// closes its channel.
func (t *Tracker) Run(ctx context.Context, src feed.Source) error {
	if src == nil {
		return errors.New("track: no feed source")
	}
	ch := src.Messages(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			t.HandleMessage(ctx, msg)
		}
	}
}
