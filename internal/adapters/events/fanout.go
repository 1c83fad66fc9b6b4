package events

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
)

const subscriberBuffer = 16

// fanout delivers events to the local subscribers of each channel. A slow
// subscriber misses events rather than blocking the others.
type fanout struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.SessionEvent]struct{}
}

func newFanout() *fanout {
	return &fanout{subscribers: make(map[string]map[chan *entities.SessionEvent]struct{})}
}

// add registers a subscriber and reports whether it is the channel's first.
func (f *fanout) add(channel string) (chan *entities.SessionEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs, exists := f.subscribers[channel]
	if !exists {
		subs = make(map[chan *entities.SessionEvent]struct{})
		f.subscribers[channel] = subs
	}
	ch := make(chan *entities.SessionEvent, subscriberBuffer)
	subs[ch] = struct{}{}
	return ch, !exists
}

// remove closes a subscriber and reports whether the channel has none left.
func (f *fanout) remove(channel string, ch chan *entities.SessionEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs, exists := f.subscribers[channel]
	if !exists {
		return false
	}
	if _, ok := subs[ch]; !ok {
		return false
	}
	delete(subs, ch)
	close(ch)

	if len(subs) == 0 {
		delete(f.subscribers, channel)
		return true
	}
	return false
}

func (f *fanout) broadcast(channel string, event *entities.SessionEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for ch := range f.subscribers[channel] {
		select {
		case ch <- event:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber buffer full, dropping event")
		}
	}
}

// closeChannel closes every subscriber of channel.
func (f *fanout) closeChannel(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subscribers[channel] {
		close(ch)
	}
	delete(f.subscribers, channel)
}

func (f *fanout) channels() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]string, 0, len(f.subscribers))
	for channel := range f.subscribers {
		out = append(out, channel)
	}
	return out
}

func (f *fanout) count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := 0
	for _, subs := range f.subscribers {
		n += len(subs)
	}
	return n
}
