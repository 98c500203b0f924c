package sync

// ChanEventSource is a channel-backed EventSource. The process embeds it
// wherever platform wake signals arrive (the CLI forwards SIGUSR1) and the
// controller consumes it.
type ChanEventSource struct {
	ch chan WakeEvent
}

func NewChanEventSource() *ChanEventSource {
	return &ChanEventSource{ch: make(chan WakeEvent, 4)}
}

// Notify posts a wake event. Non-blocking: if the controller is behind, the
// pending event already guarantees a pass and extras are dropped.
func (s *ChanEventSource) Notify(tag string) {
	select {
	case s.ch <- WakeEvent{Tag: tag}:
	default:
	}
}

func (s *ChanEventSource) Events() <-chan WakeEvent {
	return s.ch
}

func (s *ChanEventSource) Close() error {
	close(s.ch)
	return nil
}
