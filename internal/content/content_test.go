package content_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/learnprogress/internal/cache"
	"github.com/vytor/learnprogress/internal/content"
	"github.com/vytor/learnprogress/internal/models"
)

const courseYAML = `
title: Intro to Go
modules:
  - id: m1
    title: Basics
    activities:
      - id: a1
        title: Variables
        tasks:
          - id: t1
            title: Declare a variable
            type: multiple_choice
            options: [var, let, def]
          - title: Explain zero values
            type: coding_challenge
            xp: 40
`

func writeCourse(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestFileProvider_Course(t *testing.T) {
	dir := t.TempDir()
	writeCourse(t, dir, "go101.yaml", courseYAML)
	p := content.NewFileProvider(dir)

	c, err := p.Course(context.Background(), "go101")
	require.NoError(t, err)
	assert.Equal(t, "go101", c.ID)
	assert.Equal(t, "Intro to Go", c.Title)
	require.Len(t, c.Modules, 1)
	require.Len(t, c.Modules[0].Activities[0].Tasks, 2)
	task := c.Modules[0].Activities[0].Tasks[0]
	assert.Equal(t, models.TaskMultipleChoice, task.Type)
	assert.Equal(t, []string{"var", "let", "def"}, task.Options)
	assert.Equal(t, 40, c.Modules[0].Activities[0].Tasks[1].XP)
}

func TestFileProvider_YmlExtension(t *testing.T) {
	dir := t.TempDir()
	writeCourse(t, dir, "go101.yml", courseYAML)

	_, err := content.NewFileProvider(dir).Course(context.Background(), "go101")
	assert.NoError(t, err)
}

func TestFileProvider_NotFound(t *testing.T) {
	p := content.NewFileProvider(t.TempDir())

	for _, id := range []string{"missing", "", "../etc", ".."} {
		_, err := p.Course(context.Background(), id)
		assert.ErrorIs(t, err, content.ErrCourseNotFound, id)
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := content.Parse("c", []byte("modules: [oops"))
	assert.Error(t, err)

	_, err = content.Parse("c", []byte(`
modules:
  - activities:
      - id: a1
      - id: a1
`))
	assert.ErrorContains(t, err, `duplicate activity id "a1"`)
}

func TestParse_CourseLevelActivities(t *testing.T) {
	c, err := content.Parse("legacy", []byte(`
title: Flat course
activities:
  - id: intro
    title: Welcome
    tasks:
      - id: w1
        title: Hello
        type: info_card
`))
	require.NoError(t, err)
	require.Len(t, c.Activities, 1)
	assert.Empty(t, c.Modules)
	a, ok := c.FindActivity("intro")
	require.True(t, ok)
	assert.Equal(t, "Welcome", a.Title)

	_, err = content.Parse("legacy", []byte(`
activities:
  - id: a1
modules:
  - activities:
      - id: a1
`))
	assert.ErrorContains(t, err, `duplicate activity id "a1"`)

	_, err = content.Parse("legacy", []byte(`
activities:
  - title: no id
`))
	assert.ErrorContains(t, err, "course activity 0 has no id")
}

type countingProvider struct {
	calls atomic.Int32
	delay time.Duration
}

func (p *countingProvider) Course(_ context.Context, courseID string) (*models.Course, error) {
	p.calls.Add(1)
	time.Sleep(p.delay)
	if courseID == "missing" {
		return nil, content.ErrCourseNotFound
	}
	return &models.Course{ID: courseID, Modules: []models.Module{{ID: "m1"}}}, nil
}

type countingRecorder struct {
	hits, misses, invalidations atomic.Int32
}

func (r *countingRecorder) CacheHit()          { r.hits.Add(1) }
func (r *countingRecorder) CacheMiss()         { r.misses.Add(1) }
func (r *countingRecorder) CacheInvalidation() { r.invalidations.Add(1) }

func TestCachedProvider_CachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	next := &countingProvider{}
	rec := &countingRecorder{}
	p := content.NewCachedProvider(next, cache.NewMemoryCache(), time.Hour, rec)

	for i := 0; i < 3; i++ {
		c, err := p.Course(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "c1", c.ID)
	}
	assert.EqualValues(t, 1, next.calls.Load())
	assert.EqualValues(t, 2, rec.hits.Load())
	assert.EqualValues(t, 1, rec.misses.Load())

	require.NoError(t, p.Invalidate(ctx, "c1"))
	_, err := p.Course(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, next.calls.Load())

	_, err = p.Course(ctx, "c2")
	require.NoError(t, err)
	require.NoError(t, p.Clear(ctx))
	_, err = p.Course(ctx, "c1")
	require.NoError(t, err)
	_, err = p.Course(ctx, "c2")
	require.NoError(t, err)
	assert.EqualValues(t, 5, next.calls.Load())
	assert.EqualValues(t, 2, rec.invalidations.Load())
}

func TestCachedProvider_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	next := &countingProvider{}
	p := content.NewCachedProvider(next, cache.NewMemoryCache(), time.Hour, nil)

	for i := 0; i < 2; i++ {
		_, err := p.Course(ctx, "missing")
		assert.ErrorIs(t, err, content.ErrCourseNotFound)
	}
	assert.EqualValues(t, 2, next.calls.Load())
}

func TestCachedProvider_ConcurrentMissesShareOneLoad(t *testing.T) {
	next := &countingProvider{delay: 50 * time.Millisecond}
	p := content.NewCachedProvider(next, cache.NewMemoryCache(), time.Hour, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := p.Course(context.Background(), "c1")
			assert.NoError(t, err)
			c.Modules[0].ID = "mutated"
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, next.calls.Load(), int32(2))
	c, err := p.Course(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "m1", c.Modules[0].ID)
}
