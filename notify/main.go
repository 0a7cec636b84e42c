// Package notify fans out values to subscribed channels.
package notify

import (
	"log"
	"sync"
	"time"

	"golang.org/x/exp/slices"
)

const defaultTimeout = 200 * time.Millisecond

type subscriber[E any] struct {
	ch      chan<- E
	comment string
}

// Multiplexer sends each value given to Send to all subscribers, in order.
type Multiplexer[E any] struct {
	comment     string
	timeout     time.Duration
	lock        sync.Mutex
	subscribers []subscriber[E]
}

func NewMultiplexer[E any](comment string) *Multiplexer[E] {
	return &Multiplexer[E]{
		comment: comment,
		timeout: defaultTimeout,
	}
}

// SetTimeout sets how long Send waits for each subscriber to receive a value before skipping it.
func (m *Multiplexer[E]) SetTimeout(d time.Duration) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.timeout = d
}

func (m *Multiplexer[E]) Subscribe(comment string, ch chan<- E) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.subscribers = append(m.subscribers, subscriber[E]{ch: ch, comment: comment})
}

// Unsubscribe removes ch. It panics if ch is not subscribed.
func (m *Multiplexer[E]) Unsubscribe(ch chan<- E) {
	m.lock.Lock()
	defer m.lock.Unlock()
	i := slices.IndexFunc(m.subscribers, func(sub subscriber[E]) bool { return sub.ch == ch })
	if i == -1 {
		panic("already unsubscribed")
	}
	m.subscribers = slices.Delete(m.subscribers, i, i+1)
}

func (m *Multiplexer[E]) Len() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.subscribers)
}

// Send sends e to every subscriber and returns how many subscribers did not receive it in time.
func (m *Multiplexer[E]) Send(e E) (skipped int) {
	m.lock.Lock()
	defer m.lock.Unlock()
	for _, sub := range m.subscribers {
		timer := time.NewTimer(m.timeout)
		select {
		case sub.ch <- e:
			timer.Stop()
		case <-timer.C:
			log.Printf("multiplexer %s: subscriber %s timed out: %#v", m.comment, sub.comment, e)
			skipped++
		}
	}
	return
}
