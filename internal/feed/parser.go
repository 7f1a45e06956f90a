package feed

import (
	"regexp"
	"strings"
	"time"
)

// EventKind tags a parsed lifecycle event.
type EventKind string

const (
	EventStarted  EventKind = "started"
	EventFinished EventKind = "finished"
)

// Event is a typed lifecycle event extracted from a feed line. FarmPhrase is
// the raw farm-name phrase; resolution against the registry happens in the
// tracker so ambiguity is decided in one place.
type Event struct {
	Kind       EventKind
	FarmPhrase string
	Actor      string
	Clock      string    // the embedded HH:MM:SS token, display only
	At         time.Time // source message timestamp, UTC
}

// Feed lines look like:
//
//	`[12:34:56]` `[World]` **[SomePlayer]** Wheat Farm | is being started
//
// The backtick/bold wrapping is the relay bot's fixed framing; everything
// after the actor is free text that must carry a '|' separator between the
// farm phrase and the status phrase.
var lineRe = regexp.MustCompile("^`\\[(\\d{2}:\\d{2}:\\d{2})\\]`\\s*`\\[[^\\]]*\\]`\\s*\\*\\*\\[(.*?)\\]\\*\\*\\s*(.*)$")

const (
	startedTrigger  = "being started"
	finishedTrigger = "has finished"
)

// Parse extracts a lifecycle event from msg. The second return is false for
// any line that does not match the feed shape, lacks the separator, or
// carries an unrecognized status phrase. None of those are errors; unrelated
// chat text flows through the same channel.
func Parse(msg Message) (Event, bool) {
	m := lineRe.FindStringSubmatch(msg.Text)
	if m == nil {
		return Event{}, false
	}
	clock, actor, body := m[1], m[2], m[3]

	phrase, status, ok := strings.Cut(body, "|")
	if !ok {
		return Event{}, false
	}
	phrase = strings.TrimSpace(phrase)
	status = strings.ToLower(strings.TrimSpace(status))

	var kind EventKind
	switch {
	case strings.Contains(status, startedTrigger):
		kind = EventStarted
	case strings.Contains(status, finishedTrigger):
		kind = EventFinished
	default:
		return Event{}, false
	}

	return Event{
		Kind:       kind,
		FarmPhrase: phrase,
		Actor:      actor,
		Clock:      clock,
		At:         msg.At.UTC(),
	}, true
}
