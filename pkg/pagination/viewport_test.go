package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewport_AtBottom(t *testing.T) {
	tests := []struct {
		name      string
		v         Viewport
		tolerance float64
		want      bool
	}{
		{"exact bottom", Viewport{ScrollTop: 900, ViewportHeight: 100, ContentHeight: 1000}, 0, true},
		{"one pixel short", Viewport{ScrollTop: 899, ViewportHeight: 100, ContentHeight: 1000}, 0, false},
		{"fractional short", Viewport{ScrollTop: 899.5, ViewportHeight: 100, ContentHeight: 1000}, 0, false},
		{"within tolerance", Viewport{ScrollTop: 899.5, ViewportHeight: 100, ContentHeight: 1000}, 1, true},
		{"outside tolerance", Viewport{ScrollTop: 880, ViewportHeight: 100, ContentHeight: 1000}, 1, false},
		{"top of page", Viewport{ScrollTop: 0, ViewportHeight: 100, ContentHeight: 1000}, 0, false},
		{"content fits", Viewport{ScrollTop: 0, ViewportHeight: 500, ContentHeight: 500}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.AtBottom(tt.tolerance))
		})
	}
}

func TestViewportFeed_PublishAndUnsubscribe(t *testing.T) {
	feed := NewViewportFeed()

	var a, b []Viewport
	unsubA := feed.Subscribe(func(v Viewport) { a = append(a, v) })
	feed.Subscribe(func(v Viewport) { b = append(b, v) })
	assert.Equal(t, 2, feed.Subscribers())

	v := Viewport{ScrollTop: 1, ViewportHeight: 2, ContentHeight: 3}
	assert.Equal(t, 2, feed.Publish(v))

	unsubA()
	unsubA()
	assert.Equal(t, 1, feed.Subscribers())
	assert.Equal(t, 1, feed.Publish(v))

	assert.Len(t, a, 1)
	assert.Len(t, b, 2)
}
