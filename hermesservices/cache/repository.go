package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Repository stores JSON encoded values under "<namespace>:<key>".
func NewRepository[Key comparable, Value any](
	driver Driver,
	namespace string,
) *Repository[Key, Value] {
	return &Repository[Key, Value]{
		driver:    driver,
		namespace: namespace,
	}
}

type Repository[Key comparable, Value any] struct {
	driver    Driver
	namespace string
}

func (r *Repository[Key, Value]) key(key Key) string {
	return fmt.Sprintf("%s:%v", r.namespace, key)
}

func (r *Repository[Key, Value]) Set(ctx context.Context, key Key, value Value, duration time.Duration) error {
	jsonBytes, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return r.driver.Set(ctx, r.key(key), string(jsonBytes), duration)
}

// Claim is Set for keys that are not already present.
func (r *Repository[Key, Value]) Claim(ctx context.Context, key Key, value Value, duration time.Duration) (bool, error) {
	jsonBytes, err := json.Marshal(value)
	if err != nil {
		return false, err
	}

	return r.driver.Claim(ctx, r.key(key), string(jsonBytes), duration)
}

// Extend renews key only while it still holds value.
func (r *Repository[Key, Value]) Extend(ctx context.Context, key Key, value Value, duration time.Duration) (bool, error) {
	jsonBytes, err := json.Marshal(value)
	if err != nil {
		return false, err
	}

	return r.driver.Extend(ctx, r.key(key), string(jsonBytes), duration)
}

func (r *Repository[Key, Value]) Get(ctx context.Context, key Key) (Value, error) {
	var target Value

	raw, err := r.driver.Get(ctx, r.key(key))
	if err != nil {
		return target, err
	}

	if err := json.Unmarshal([]byte(raw), &target); err != nil {
		return target, fmt.Errorf("cache: decoding %s: %w", r.key(key), err)
	}

	return target, nil
}

func (r *Repository[Key, Value]) Delete(ctx context.Context, key Key) error {
	return r.driver.Delete(ctx, r.key(key))
}
