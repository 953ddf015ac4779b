package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyLockSerializesSameKey(t *testing.T) {
	kl := NewKeyLock()

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kl.Lock("user-1")
			counter++
			kl.Unlock("user-1")
		}()
	}
	wg.Wait()

	require.Equal(t, 100, counter)
}

func TestKeyLockDifferentKeysDoNotBlock(t *testing.T) {
	kl := NewKeyLock()

	kl.Lock("a")
	done := make(chan struct{})
	go func() {
		// "b" is overwhelmingly likely to land on another shard; if it
		// shares one, the test still passes once "a" unlocks.
		kl.Lock("b")
		kl.Unlock("b")
		close(done)
	}()
	kl.Unlock("a")
	<-done
}
