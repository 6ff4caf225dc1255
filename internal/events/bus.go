package events

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultNotifyDuration is how long a notification stays visible when the
// publisher does not say.
const DefaultNotifyDuration = 2 * time.Second

// Message is one of OpenDetail or Notify.
type Message interface {
	isMessage()
}

// OpenDetail asks the presentation layer to show the detail view for a movie.
type OpenDetail struct {
	MovieID int
}

// Variant is the severity of a notification.
type Variant string

const (
	Success Variant = "success"
	Info    Variant = "info"
	Warning Variant = "warning"
	Danger  Variant = "danger"
)

// ParseVariant maps a name to a Variant, defaulting to Success.
func ParseVariant(raw string) Variant {
	switch v := Variant(strings.ToLower(strings.TrimSpace(raw))); v {
	case Success, Info, Warning, Danger:
		return v
	case "error":
		return Danger
	default:
		return Success
	}
}

// Notify asks the presentation layer to show a transient message.
type Notify struct {
	ID       uuid.UUID
	Text     string
	Variant  Variant
	Duration time.Duration
}

// Lifetime returns Duration, or DefaultNotifyDuration when unset.
func (n Notify) Lifetime() time.Duration {
	if n.Duration <= 0 {
		return DefaultNotifyDuration
	}
	return n.Duration
}

func (OpenDetail) isMessage() {}
func (Notify) isMessage()     {}

type listener struct {
	id uint64
	fn func(Message)
}

// Bus delivers messages synchronously to every listener registered at the
// time of Publish. Messages are not replayed to later subscribers.
type Bus struct {
	mu        sync.RWMutex
	listeners []listener
	next      uint64
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn. The returned function removes it and may be called
// any number of times, including from inside fn.
func (b *Bus) Subscribe(fn func(Message)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	b.next++
	id := b.next
	b.listeners = append(b.listeners, listener{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, l := range b.listeners {
		if l.id == id {
			b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
			return
		}
	}
}

// Publish calls every current listener in registration order before
// returning. A nil message is dropped.
func (b *Bus) Publish(msg Message) {
	if b == nil || msg == nil {
		return
	}
	b.mu.RLock()
	current := b.listeners
	b.mu.RUnlock()

	for _, l := range current {
		l.fn(msg)
	}
}

// Len reports the number of registered listeners.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// OpenDetail publishes an OpenDetail message. Ids that are not positive are
// ignored.
func (b *Bus) OpenDetail(movieID int) {
	if movieID <= 0 {
		return
	}
	b.Publish(OpenDetail{MovieID: movieID})
}

// Notify publishes a notification and returns it so callers can track its id.
func (b *Bus) Notify(text string, variant Variant, d time.Duration) Notify {
	if variant == "" {
		variant = Success
	}
	msg := Notify{ID: uuid.New(), Text: text, Variant: variant, Duration: d}
	b.Publish(msg)
	return msg
}
