package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_NewClock(t *testing.T) {
	c := NewClock(0)
	assert.Equal(t, int64(0), c.Current(), "new clock should start at 0")
	assert.Equal(t, DefaultTickLength, c.Tick(), "non-positive tick falls back to 60 Hz")
	assert.Equal(t, time.Duration(0), c.Elapsed())
}

func TestClock_Next_Incrementing(t *testing.T) {
	c := NewClock(10 * time.Millisecond)

	// First call returns 1 (increments then returns)
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(3), c.Next())

	assert.Equal(t, int64(3), c.Current())
	assert.Equal(t, 30*time.Millisecond, c.Elapsed())
	assert.InDelta(t, 0.03, c.Seconds(), 1e-12)
}

func TestClock_ConcurrentReaders(t *testing.T) {
	c := NewClock(time.Millisecond)
	const readers = 8

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			last := int64(0)
			for {
				select {
				case <-stop:
					return
				default:
				}
				cur := c.Current()
				assert.GreaterOrEqual(t, cur, last, "frame never goes backwards")
				last = cur
			}
		}()
	}

	for i := 0; i < 1000; i++ {
		c.Next()
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, int64(1000), c.Current())
}
