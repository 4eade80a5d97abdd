package gmetricd

import (
	"context"
)

// Runnable is a long running function intended to be launched in a goroutine.
type Runnable func(context.Context)

// Runner exposes a Runnable through an interface
type Runner interface {
	Run(context.Context)
}

// MaybeAppendRunnable will add the Run method to the list of runnables if the value implements Runner.
func MaybeAppendRunnable(runnables []Runnable, maybeRunner interface{}) []Runnable {
	if r, ok := maybeRunner.(Runner); ok {
		runnables = append(runnables, r.Run)
	}
	return runnables
}

// Stat groups and names maintained by the daemon itself.
const (
	StatGroupMessages = "messages"
	StatGroupFlush    = "flush"

	StatLastMessageSeen = "last_msg_seen"
	StatBadLinesSeen    = "bad_lines_seen"
	StatDroppedPackets  = "dropped_packets"
	StatLastFlush       = "last_flush"
	StatLastException   = "last_exception"
)
