package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func (entry memoryEntry) expired(now time.Time) bool {
	return !now.Before(entry.expiresAt)
}

// NewDriverMemory keeps entries in process. Expired entries are swept every
// minute until ctx is done.
func NewDriverMemory(ctx context.Context) (Driver, error) {
	driver := &driverMemory{
		entries: map[string]memoryEntry{},
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				driver.sweep(now)
			}
		}
	}()

	return driver, nil
}

type driverMemory struct {
	mutex   sync.Mutex
	entries map[string]memoryEntry
}

func (driver *driverMemory) Delete(ctx context.Context, key string) error {
	driver.mutex.Lock()
	defer driver.mutex.Unlock()

	delete(driver.entries, key)

	return nil
}

func (driver *driverMemory) Get(ctx context.Context, key string) (string, error) {
	driver.mutex.Lock()
	defer driver.mutex.Unlock()

	entry, found := driver.entries[key]
	if !found || entry.expired(time.Now()) {
		return "", ErrNotFound
	}

	return entry.value, nil
}

func (driver *driverMemory) Set(ctx context.Context, key string, value string, duration time.Duration) error {
	driver.mutex.Lock()
	defer driver.mutex.Unlock()

	driver.entries[key] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(duration),
	}

	return nil
}

func (driver *driverMemory) Claim(ctx context.Context, key string, value string, duration time.Duration) (bool, error) {
	driver.mutex.Lock()
	defer driver.mutex.Unlock()

	now := time.Now()
	if entry, found := driver.entries[key]; found && !entry.expired(now) {
		return false, nil
	}

	driver.entries[key] = memoryEntry{
		value:     value,
		expiresAt: now.Add(duration),
	}

	return true, nil
}

func (driver *driverMemory) Extend(ctx context.Context, key string, value string, duration time.Duration) (bool, error) {
	driver.mutex.Lock()
	defer driver.mutex.Unlock()

	now := time.Now()
	entry, found := driver.entries[key]
	if !found || entry.expired(now) || entry.value != value {
		return false, nil
	}

	entry.expiresAt = now.Add(duration)
	driver.entries[key] = entry

	return true, nil
}

func (driver *driverMemory) sweep(now time.Time) {
	driver.mutex.Lock()
	defer driver.mutex.Unlock()

	for key, entry := range driver.entries {
		if entry.expired(now) {
			delete(driver.entries, key)
		}
	}
}
