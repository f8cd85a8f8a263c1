package sandbox

import "bytes"

const truncatedMarker = "\n[output truncated]"

// cappedBuffer keeps the first max bytes written and drops the rest.
type cappedBuffer struct {
	buf       bytes.Buffer
	max       int
	truncated bool
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if c.max > 0 {
		room := c.max - c.buf.Len()
		if room <= 0 {
			c.truncated = true
			return n, nil
		}
		if len(p) > room {
			p = p[:room]
			c.truncated = true
		}
	}
	c.buf.Write(p)
	return n, nil
}

func (c *cappedBuffer) String() string {
	if c.truncated {
		return c.buf.String() + truncatedMarker
	}
	return c.buf.String()
}
