package storyboard

import (
	"log/slog"

	"github.com/phanxgames/storyboard/stage"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// SelectionChanged is published after the selection changes. Selection is
// nil when it was cleared.
type SelectionChanged struct {
	Selection *Selection
}

// Notice is a message meant for the user, such as a refused publish or a
// generation failure.
type Notice struct {
	Level   slog.Level
	Message string
	Err     error
}

// Canvas event types. Subscribe on Canvas.World; events are delivered at the
// end of every Step or Update.
var (
	SelectionChangedEvent = events.NewEventType[SelectionChanged]()
	NoticeEvent           = events.NewEventType[Notice]()
)

// transformEnded is queued by live handles when an interactive move, resize
// or rotate is released.
type transformEnded struct {
	node *stage.Node
	kind stage.TransformKind
}

var transformEndedEvent = events.NewEventType[transformEnded]()

// World returns the event world the canvas publishes to.
func (c *Canvas) World() donburi.World {
	return c.world
}

func (c *Canvas) notice(level slog.Level, msg string, err error) {
	NoticeEvent.Publish(c.world, Notice{Level: level, Message: msg, Err: err})
}
