package leaderboard

import (
	"context"

	"scribekit/core"
)

// Entry represents one writer's position by total XP.
type Entry struct {
	Writer core.WriterID `json:"writer_id"`
	XP     int64         `json:"xp"`
}

// Board abstracts top-writers ranking operations.
type Board interface {
	Update(writer core.WriterID, xp int64)
	Remove(writer core.WriterID)
	TopN(n int) []Entry
	Get(writer core.WriterID) (Entry, bool)
}

// Subscriber wires a board to an event source. The xp_awarded event carries
// the post-award total, so the board never has to read storage.
type Subscriber interface {
	Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func()
}

// Attach keeps the board current from xp_awarded events. Returns the
// unsubscribe func.
func Attach(src Subscriber, board Board) func() {
	return src.Subscribe(core.EventXPAwarded, func(_ context.Context, e core.Event) {
		board.Update(e.Writer, e.Total)
	})
}
