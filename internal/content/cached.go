package content

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/vytor/learnprogress/internal/cache"
	"github.com/vytor/learnprogress/internal/logger"
	"github.com/vytor/learnprogress/internal/models"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "course:"

// CacheRecorder receives cache outcome events.
type CacheRecorder interface {
	CacheHit()
	CacheMiss()
	CacheInvalidation()
}

type noopRecorder struct{}

func (noopRecorder) CacheHit()          {}
func (noopRecorder) CacheMiss()         {}
func (noopRecorder) CacheInvalidation() {}

// CachedProvider serves courses from a cache, loading misses from the
// wrapped provider. Concurrent misses for one course share a single load.
// Entries live until the TTL elapses or Invalidate/Clear is called.
type CachedProvider struct {
	next     Provider
	cache    cache.Cache
	ttl      time.Duration
	recorder CacheRecorder
	group    singleflight.Group
}

func NewCachedProvider(next Provider, c cache.Cache, ttl time.Duration, recorder CacheRecorder) *CachedProvider {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &CachedProvider{next: next, cache: c, ttl: ttl, recorder: recorder}
}

func (p *CachedProvider) Course(ctx context.Context, courseID string) (*models.Course, error) {
	log := logger.FromContext(ctx).WithPrefix("content_cache")

	key := keyPrefix + courseID
	raw, err := p.cache.Get(ctx, key)
	switch {
	case err == nil:
		var c models.Course
		if err := json.Unmarshal(raw, &c); err == nil {
			p.recorder.CacheHit()
			return &c, nil
		}
		log.Warn("dropping undecodable cache entry for course %s", courseID)
		_ = p.cache.Delete(ctx, key)
	case !errors.Is(err, cache.ErrCacheMiss):
		log.Warn("cache read failed for course %s, loading directly: %v", courseID, err)
	}
	p.recorder.CacheMiss()

	v, err, _ := p.group.Do(courseID, func() (any, error) {
		c, err := p.next.Course(ctx, courseID)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(c); err == nil {
			if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
				log.Warn("failed to cache course %s: %v", courseID, err)
			}
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneCourse(v.(*models.Course)), nil
}

// Invalidate drops one course so the next read reloads it.
func (p *CachedProvider) Invalidate(ctx context.Context, courseID string) error {
	logger.FromContext(ctx).WithPrefix("content_cache").Info("invalidating course %s", courseID)
	p.recorder.CacheInvalidation()
	return p.cache.Delete(ctx, keyPrefix+courseID)
}

// Clear drops every cached course.
func (p *CachedProvider) Clear(ctx context.Context) error {
	logger.FromContext(ctx).WithPrefix("content_cache").Info("clearing course cache")
	p.recorder.CacheInvalidation()
	return p.cache.DeletePrefix(ctx, keyPrefix)
}

// cloneCourse gives each caller of a shared load its own copy.
func cloneCourse(c *models.Course) *models.Course {
	out := *c
	out.Activities = append([]models.Activity(nil), c.Activities...)
	for ai := range out.Activities {
		out.Activities[ai].Tasks = append([]models.Task(nil), out.Activities[ai].Tasks...)
	}
	out.Modules = make([]models.Module, len(c.Modules))
	for mi, m := range c.Modules {
		m.Activities = append([]models.Activity(nil), m.Activities...)
		for ai := range m.Activities {
			m.Activities[ai].Tasks = append([]models.Task(nil), m.Activities[ai].Tasks...)
		}
		out.Modules[mi] = m
	}
	return &out
}
