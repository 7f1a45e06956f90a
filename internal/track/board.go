package track

import (
	"context"
	"fmt"
	"strings"

	"github.com/loykin/harvestd/internal/farm"
)

// RenderBoard formats the status board for the given records.
func RenderBoard(recs []farm.Record) string {
	var b strings.Builder
	b.WriteString("**Farm Status**\n")
	if len(recs) == 0 {
		b.WriteString("_no farms tracked_\n")
		return b.String()
	}
	for _, r := range recs {
		fmt.Fprintf(&b, "\n**%s**\n", r.Name)
		if r.Coords != "" {
			fmt.Fprintf(&b, "Coords: %s\n", r.Coords)
		}
		if r.Output != "" {
			fmt.Fprintf(&b, "Output: %s\n", r.Output)
		}
		fmt.Fprintf(&b, "Runtime: %s\n", r.Runtime)
		switch {
		case r.Status == farm.StatusReady:
			b.WriteString("Status: Ready to be farmed\n")
		case r.NextReady != nil:
			fmt.Fprintf(&b, "Status: Regrowing, ready %s\n", fmtTime(*r.NextReady))
		case r.Status == farm.StatusFarming:
			b.WriteString("Status: Currently being farmed\n")
		default:
			b.WriteString("Status: Unknown\n")
		}
	}
	return b.String()
}

// refreshBoardLocked re-publishes the status board. Publish may hand back a
// new message id (the old board was deleted out from under us); that id is
// persisted so later edits target the right message. Board failures are
// logged and dropped, never surfaced to the caller.
func (t *Tracker) refreshBoardLocked(ctx context.Context) {
	if t.board == nil || t.chat.StatusChannel == "" {
		return
	}
	content := RenderBoard(t.reg.Snapshot())
	id, err := t.board.Publish(ctx, t.chat.StatusChannel, t.statusMessageID, content)
	if err != nil {
		t.logger.Warn("status board update failed", "error", err)
		return
	}
	if id != "" && id != t.statusMessageID {
		t.statusMessageID = id
		if err := t.persistLocked(); err != nil {
			t.logger.Error("persist board message id", "error", err)
		}
	}
}
