package api

import (
	"context"
	"strconv"
)

// ReadCache is the subset of cache.Cache the handlers use.
type ReadCache interface {
	GetJSON(ctx context.Context, key string, dst any) bool
	SetJSON(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
}

type noCache struct{}

func (noCache) GetJSON(context.Context, string, any) bool  { return false }
func (noCache) SetJSON(context.Context, string, any) error { return nil }
func (noCache) Delete(context.Context, ...string) error    { return nil }

// observedCache reports every lookup to a hit/miss counter.
type observedCache struct {
	ReadCache
	observe func(hit bool)
}

func (c observedCache) GetJSON(ctx context.Context, key string, dst any) bool {
	hit := c.ReadCache.GetJSON(ctx, key, dst)
	c.observe(hit)
	return hit
}

const departmentsKey = "departments"

func departmentKey(id int64) string {
	return departmentsKey + ":" + strconv.FormatInt(id, 10)
}

func officersKey(departmentID int64) string {
	return departmentKey(departmentID) + ":officers"
}
