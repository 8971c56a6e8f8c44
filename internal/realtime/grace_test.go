package realtime

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGraceFires(t *testing.T) {
	g := NewGrace()
	var fired int32

	g.Arm("u1", 10*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	assert.True(t, g.Pending("u1"))

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&fired) == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, g.Pending("u1"))
}

func TestGraceCancel(t *testing.T) {
	g := NewGrace()
	var fired int32

	g.Arm("u1", 20*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	assert.True(t, g.Cancel("u1"))
	assert.False(t, g.Cancel("u1"))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestGraceReplaceRunsOnlyLatest(t *testing.T) {
	g := NewGrace()
	var first, second int32

	g.Arm("u1", 20*time.Millisecond, func() { atomic.AddInt32(&first, 1) })
	g.Arm("u1", 20*time.Millisecond, func() { atomic.AddInt32(&second, 1) })

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&second) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&first))
}

func TestGraceStaleGenerationIgnored(t *testing.T) {
	g := NewGrace()
	var fired int32

	g.Arm("u1", time.Hour, func() {})
	// a callback from an older generation that the runtime had already started
	g.fire("u1", 0, func() { atomic.AddInt32(&fired, 1) })

	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
	assert.True(t, g.Pending("u1"))
	g.Stop()
}

func TestGraceStop(t *testing.T) {
	g := NewGrace()
	var fired int32

	g.Arm("u1", 10*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	g.Stop()
	g.Arm("u2", 10*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
	assert.False(t, g.Pending("u2"))
}
