package session

import (
	"context"
	"sync"
)

// subscriber delivers events in order through an unbounded queue so a slow
// consumer never blocks a transition.
type subscriber struct {
	out    chan Event
	notify chan struct{}
	done   chan struct{}
	once   sync.Once

	mu    sync.Mutex
	queue []Event
}

func newSubscriber() *subscriber {
	return &subscriber{
		out:    make(chan Event),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (s *subscriber) push(e Event) {
	s.mu.Lock()
	s.queue = append(s.queue, e)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *subscriber) pop() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Event{}, false
	}
	e := s.queue[0]
	s.queue = s.queue[1:]
	return e, true
}

// run pumps queued events to out until stopped or ctx ends; out is closed on return.
func (s *subscriber) run(ctx context.Context) {
	defer close(s.out)
	for {
		e, ok := s.pop()
		if !ok {
			select {
			case <-s.notify:
				continue
			case <-s.done:
				return
			case <-ctx.Done():
				return
			}
		}

		select {
		case s.out <- e:
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
