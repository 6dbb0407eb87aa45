package demo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/go-drift/behaviors/pkg/notify"
)

func TestTimeContainer_Update(t *testing.T) {
	var c TimeContainer
	var names []string
	remove := c.AddPropertyChangedListener(func(sender any, e notify.PropertyChangedEvent) {
		assert.Same(t, &c, sender)
		names = append(names, e.PropertyName)
	})
	defer remove()

	at := time.Date(2024, 5, 1, 13, 4, 5, 0, time.UTC)
	c.Update(at)
	c.Update(at)

	assert.Equal(t, "13:04:05", c.Time())
	assert.Equal(t, []string{"Time"}, names)
}

func TestRandomContainer_Update(t *testing.T) {
	var c RandomContainer
	var count int
	c.AddPropertyChangedListener(func(any, notify.PropertyChangedEvent) { count++ })

	c.Update(time.Date(2024, 5, 1, 0, 0, 0, 123*int(time.Millisecond), time.UTC))
	assert.Equal(t, "123", c.RandomID())
	assert.Equal(t, 1, count)
}
