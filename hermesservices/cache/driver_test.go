package cache_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lunagic/hermes/hermesservices/cache"
	"gotest.tools/v3/assert"
)

func testSuite(t *testing.T, driver cache.Driver) {
	key := uuid.NewString()
	value := uuid.NewString()

	{ // Confirm not found error
		_, err := driver.Get(t.Context(), key)
		assert.ErrorIs(t, err, cache.ErrNotFound)
	}

	{ // Confirm set
		assert.NilError(t, driver.Set(t.Context(), key, value, time.Second*30))
	}

	{ // Confirm getting value works
		actualValue, err := driver.Get(t.Context(), key)
		assert.NilError(t, err)
		assert.Equal(t, actualValue, value)
	}

	{ // Claiming a present key does not replace it
		claimed, err := driver.Claim(t.Context(), key, uuid.NewString(), time.Second*30)
		assert.NilError(t, err)
		assert.Assert(t, !claimed)

		actualValue, err := driver.Get(t.Context(), key)
		assert.NilError(t, err)
		assert.Equal(t, actualValue, value)
	}

	{ // Delete
		assert.NilError(t, driver.Delete(t.Context(), key))

		_, err := driver.Get(t.Context(), key)
		assert.ErrorIs(t, err, cache.ErrNotFound)
	}

	{ // Claiming an absent key stores it
		claimed, err := driver.Claim(t.Context(), key, value, time.Second*30)
		assert.NilError(t, err)
		assert.Assert(t, claimed)

		actualValue, err := driver.Get(t.Context(), key)
		assert.NilError(t, err)
		assert.Equal(t, actualValue, value)
	}

	{ // Extending with another holder's value leaves the entry alone
		extended, err := driver.Extend(t.Context(), key, uuid.NewString(), time.Second*30)
		assert.NilError(t, err)
		assert.Assert(t, !extended)

		actualValue, err := driver.Get(t.Context(), key)
		assert.NilError(t, err)
		assert.Equal(t, actualValue, value)
	}

	{ // Extending a held entry outlives its first expiry
		leaseKey := uuid.NewString()
		assert.NilError(t, driver.Set(t.Context(), leaseKey, value, time.Second*1))

		extended, err := driver.Extend(t.Context(), leaseKey, value, time.Second*30)
		assert.NilError(t, err)
		assert.Assert(t, extended)

		time.Sleep(time.Second * 2)

		actualValue, err := driver.Get(t.Context(), leaseKey)
		assert.NilError(t, err)
		assert.Equal(t, actualValue, value)
	}

	{ // An expired entry can not be extended, only claimed again
		leaseKey := uuid.NewString()
		assert.NilError(t, driver.Set(t.Context(), leaseKey, value, time.Second*1))

		time.Sleep(time.Second * 2)

		extended, err := driver.Extend(t.Context(), leaseKey, value, time.Second*30)
		assert.NilError(t, err)
		assert.Assert(t, !extended)

		_, err = driver.Get(t.Context(), leaseKey)
		assert.ErrorIs(t, err, cache.ErrNotFound)

		claimed, err := driver.Claim(t.Context(), leaseKey, uuid.NewString(), time.Second*30)
		assert.NilError(t, err)
		assert.Assert(t, claimed)
	}

	{ // Confirm Expiration
		key = uuid.NewString()
		value = uuid.NewString()

		assert.NilError(t, driver.Set(t.Context(), key, value, time.Second*1))

		actualValue, err := driver.Get(t.Context(), key)
		assert.NilError(t, err)
		assert.Equal(t, actualValue, value)

		time.Sleep(time.Second * 2)

		_, expiredCheckErr := driver.Get(t.Context(), key)
		assert.ErrorIs(t, expiredCheckErr, cache.ErrNotFound)

		// An expired entry can be claimed again
		claimed, err := driver.Claim(t.Context(), key, value, time.Second*30)
		assert.NilError(t, err)
		assert.Assert(t, claimed)
	}
}
