package observable

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_GetSet(t *testing.T) {
	c := New(1)
	assert.Equal(t, 1, c.Get())

	c.Set(2)
	assert.Equal(t, 2, c.Get())
}

func TestCell_UpdateIsAtomic(t *testing.T) {
	c := New(0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Update(func(v int) int { return v + 1 })
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, c.Get())
}

func TestCell_SubscribeReceivesCurrentValue(t *testing.T) {
	c := New("a")
	ch, cancel := c.Subscribe()
	defer cancel()

	assert.Equal(t, "a", <-ch)
}

func TestCell_SubscribeCoalescesToLatest(t *testing.T) {
	c := New(0)
	ch, cancel := c.Subscribe()
	defer cancel()

	c.Set(1)
	c.Set(2)
	c.Set(3)

	assert.Equal(t, 3, <-ch)
	select {
	case v := <-ch:
		t.Fatalf("unexpected extra value %d", v)
	default:
	}
}

func TestCell_CancelClosesChannel(t *testing.T) {
	c := New(0)
	ch, cancel := c.Subscribe()
	<-ch

	cancel()
	cancel()

	_, ok := <-ch
	require.False(t, ok)

	// Writes after cancel must not block or panic.
	c.Set(5)
	assert.Equal(t, 5, c.Get())
}

func TestCell_MultipleSubscribers(t *testing.T) {
	c := New(0)
	ch1, cancel1 := c.Subscribe()
	defer cancel1()
	ch2, cancel2 := c.Subscribe()
	defer cancel2()

	c.Set(7)

	assert.Equal(t, 7, <-ch1)
	assert.Equal(t, 7, <-ch2)
}
