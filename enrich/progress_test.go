package enrich

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker(t *testing.T) {
	p := NewProgressTracker(10)

	p.Increment(3)
	assert.Zero(t, p.Current(), "ignored before Start")
	assert.Zero(t, p.Elapsed())
	assert.Zero(t, p.Rate())

	p.Start()
	p.Increment(3)
	assert.Equal(t, 3, p.Current())
	assert.Equal(t, 7, p.Remaining())

	p.Increment(20)
	assert.Equal(t, 10, p.Current(), "capped at total")
	assert.Zero(t, p.Remaining())

	p.Start()
	assert.Zero(t, p.Current(), "Start resets")

	p.Finish()
	assert.Equal(t, 10, p.Current())

	time.Sleep(2 * time.Millisecond)
	assert.Greater(t, p.Elapsed(), time.Duration(0))
	assert.Greater(t, p.Rate(), 0.0)
}

func TestProgressTracker_Concurrent(t *testing.T) {
	p := NewProgressTracker(1000)
	p.Start()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Increment(5)
		}()
	}
	wg.Wait()
	assert.Equal(t, 500, p.Current())
}
