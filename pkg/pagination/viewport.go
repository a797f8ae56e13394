package pagination

import (
	"math"
	"sync"
)

// Viewport is one scroll position notification.
type Viewport struct {
	ScrollTop      float64 `json:"scroll_top"`
	ViewportHeight float64 `json:"viewport_height"`
	ContentHeight  float64 `json:"content_height"`
}

// AtBottom reports whether the viewport shows the end of the content. With
// zero tolerance the comparison is exact.
func (v Viewport) AtBottom(tolerance float64) bool {
	bottom := v.ScrollTop + v.ViewportHeight
	if tolerance <= 0 {
		return bottom == v.ContentHeight
	}
	return math.Abs(v.ContentHeight-bottom) <= tolerance
}

// ViewportSource delivers scroll notifications to subscribers. The returned
// function releases the subscription.
type ViewportSource interface {
	Subscribe(fn func(Viewport)) (unsubscribe func())
}

// ViewportFeed is an in-process ViewportSource.
type ViewportFeed struct {
	mu   sync.RWMutex
	subs map[int]func(Viewport)
	next int
}

// NewViewportFeed creates a feed with no subscribers.
func NewViewportFeed() *ViewportFeed {
	return &ViewportFeed{subs: make(map[int]func(Viewport))}
}

// Subscribe registers fn. Calling the returned function more than once is
// harmless.
func (f *ViewportFeed) Subscribe(fn func(Viewport)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	f.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Publish delivers v to every subscriber and returns how many were notified.
func (f *ViewportFeed) Publish(v Viewport) int {
	f.mu.RLock()
	fns := make([]func(Viewport), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
	return len(fns)
}

// Subscribers returns the number of active subscriptions.
func (f *ViewportFeed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
