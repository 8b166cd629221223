// Package station holds the station's static identity and the atomic
// listener counter that backs its one mutable field.
package station

import "sync/atomic"

// Info is the station's static identity: everything about a StationInfo
// response except the live listener count.
type Info struct {
	Name        string
	Description string
	Bitrate     int // nominal encoded bits/sec, reported as 128000
	SampleRate  int // target encoder rate, typically 44100
	Channels    int // target channel count, 1 or 2
}

// Counter tracks the currently connected listener count. It backs the one
// field of StationInfo that changes while the broadcaster runs.
type Counter struct {
	n atomic.Int64
}

func (c *Counter) Inc() int64  { return c.n.Add(1) }
func (c *Counter) Dec() int64  { return c.n.Add(-1) }
func (c *Counter) Load() int64 { return c.n.Load() }
