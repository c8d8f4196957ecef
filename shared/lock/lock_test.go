package lock_test

import (
	"quicktable/shared/lock"
	"sync"
	"testing"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := lock.NewKeyedMutex()

	const workers = 50

	counter := 0

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()

			km.Lock("table-1")
			defer km.Unlock("table-1")

			counter++
		}()
	}

	wg.Wait()

	if counter != workers {
		t.Errorf("expected %d increments, got %d", workers, counter)
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := lock.NewKeyedMutex()

	km.Lock("table-1")

	done := make(chan struct{})

	go func() {
		km.Lock("table-2")
		km.Unlock("table-2")
		close(done)
	}()

	// A different key must not block behind table-1.
	<-done

	km.Unlock("table-1")
}

func TestKeyedMutexUnlockUnknownKeyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on unlocking an unheld key")
		}
	}()

	lock.NewKeyedMutex().Unlock("table-1")
}
