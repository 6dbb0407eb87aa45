// Package demo contains the clock host used by behaviors-demo.
package demo

import (
	"strconv"
	"time"

	"github.com/go-drift/behaviors/pkg/notify"
)

// TimeLayout is the format of TimeContainer.Time.
const TimeLayout = "15:04:05"

// TimeContainer holds the current time of day.
type TimeContainer struct {
	notify.Source
	time string
}

// Time returns the last stored time of day.
func (c *TimeContainer) Time() string {
	return c.time
}

// SetTime stores v and raises a change for "Time" if it differs.
func (c *TimeContainer) SetTime(v string) {
	notify.SetProperty(&c.Source, c, &c.time, v, "Time")
}

// Update stores the time of day of now.
func (c *TimeContainer) Update(now time.Time) {
	c.SetTime(now.Format(TimeLayout))
}

// RandomContainer holds a value that changes on every update.
type RandomContainer struct {
	notify.Source
	randomID string
}

// RandomID returns the last stored value.
func (c *RandomContainer) RandomID() string {
	return c.randomID
}

// SetRandomID stores v and raises a change for "RandomId".
func (c *RandomContainer) SetRandomID(v string) {
	notify.SetProperty(&c.Source, c, &c.randomID, v, "RandomId")
}

// Update derives a new value from the millisecond part of now.
func (c *RandomContainer) Update(now time.Time) {
	c.SetRandomID(strconv.Itoa(now.Nanosecond() / int(time.Millisecond)))
}
