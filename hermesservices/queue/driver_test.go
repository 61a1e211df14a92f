package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lunagic/hermes/hermesservices/queue"
	"gotest.tools/v3/assert"
)

type deleteRequest struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

func testSuite(t *testing.T, driver queue.Driver) {
	requests, err := queue.NewQueue[deleteRequest](t.Context(), driver, uuid.NewString())
	assert.NilError(t, err)

	expected := deleteRequest{
		Bucket: uuid.NewString(),
		Key:    "AUDIO/" + uuid.NewString() + ".mp3",
	}

	{ // Messages arrive decoded
		assert.NilError(t, requests.Publish(t.Context(), expected))

		ctx, cancel := context.WithTimeout(t.Context(), time.Second*10)
		defer cancel()

		var received deleteRequest
		stopConsuming := errors.New(uuid.NewString())
		consumeErr := requests.Consume(ctx, func(ctx context.Context, payload deleteRequest) error {
			received = payload
			return stopConsuming
		})
		assert.ErrorIs(t, consumeErr, stopConsuming)
		assert.DeepEqual(t, received, expected)
	}

	{ // Consume returns once the context is done
		ctx, cancel := context.WithTimeout(t.Context(), time.Millisecond*200)
		defer cancel()

		assert.NilError(t, requests.Consume(ctx, func(ctx context.Context, payload deleteRequest) error {
			return nil
		}))
	}
}
