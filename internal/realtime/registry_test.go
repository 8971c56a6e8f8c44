package realtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBindReturnsDisplaced(t *testing.T) {
	r := NewRegistry()
	first, second := newFakeConn("c1", "u1"), newFakeConn("c2", "u1")

	assert.Nil(t, r.Bind("u1", first))
	prev := r.Bind("u1", second)
	require.NotNil(t, prev)
	assert.Equal(t, "c1", prev.ID())

	cur, ok := r.Lookup("u1")
	require.True(t, ok)
	assert.Equal(t, "c2", cur.ID())
	assert.Equal(t, 1, r.Len())
}

func TestRegistryUnbindIf(t *testing.T) {
	r := NewRegistry()
	r.Bind("u1", newFakeConn("c2", "u1"))

	assert.False(t, r.UnbindIf("u1", "c1"), "stale connection must not unbind the newer one")
	assert.True(t, r.UnbindIf("u1", "c2"))
	assert.False(t, r.UnbindIf("u1", "c2"))

	_, ok := r.Lookup("u1")
	assert.False(t, ok)
}

func TestRegistryConcurrentBinds(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i%50)
			r.Bind(user, newFakeConn(fmt.Sprintf("c%d", i), user))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, r.Len())
	r.Unbind("user-0")
	assert.Equal(t, 49, r.Len())
}

func TestRegistryBindIfAbsent(t *testing.T) {
	r := NewRegistry()
	a, b := newFakeConn("a", "u1"), newFakeConn("b", "u1")

	assert.True(t, r.BindIfAbsent("u1", a))
	assert.False(t, r.BindIfAbsent("u1", b))

	conn, ok := r.Lookup("u1")
	require.True(t, ok)
	assert.Equal(t, "a", conn.ID())
}
