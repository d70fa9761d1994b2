package isolate

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sharedBase() *Map {
	return FromValues(map[string]any{"path": "/", "secure": true}, "path", "secure")
}

func TestWrapper_SetDoesNotLeak(t *testing.T) {
	base := sharedBase()
	w := New(base)
	w2 := New(base)

	w.Set("path", "/admin")
	w.Set("domain", "example.com")

	v, ok := base.Get("path")
	require.True(t, ok)
	assert.Equal(t, "/", v)
	assert.False(t, base.Has("domain"))

	v, _ = w2.Get("path")
	assert.Equal(t, "/", v)
	_, ok = w2.Get("domain")
	assert.False(t, ok)

	v, _ = w.Get("path")
	assert.Equal(t, "/admin", v)
	v, _ = w.Get("domain")
	assert.Equal(t, "example.com", v)
}

func TestWrapper_DeleteHidesBaseKey(t *testing.T) {
	base := sharedBase()
	w := New(base)

	w.Delete("secure")

	assert.False(t, w.Has("secure"))
	_, ok := w.Get("secure")
	assert.False(t, ok)
	assert.NotContains(t, w.OwnKeys(), "secure")

	v, ok := base.Get("secure")
	require.True(t, ok)
	assert.Equal(t, true, v)
	assert.True(t, New(base).Has("secure"))
}

func TestWrapper_DeleteUnknownKey(t *testing.T) {
	w := New(NewMap(nil))
	w.Delete("missing")
	assert.False(t, w.Has("missing"))
	assert.Empty(t, w.OwnKeys())
	assert.True(t, w.Overridden("missing"))
}

func TestWrapper_SetAfterDelete(t *testing.T) {
	base := sharedBase()
	w := New(base)
	w.Delete("path")
	w.Set("path", "/again")

	assert.True(t, w.Has("path"))
	assert.Equal(t, []string{"path", "secure"}, w.OwnKeys())
	v, _ := w.Get("path")
	assert.Equal(t, "/again", v)
}

func TestWrapper_OwnKeys(t *testing.T) {
	base := sharedBase()
	w := New(base)
	w.Set("x", 1)
	w.Set("path", "/x")
	w.Set("a", 2)
	w.Delete("secure")

	assert.Equal(t, []string{"path", "x", "a"}, w.OwnKeys())
	assert.Equal(t, []string{"path", "secure"}, base.OwnKeys())

	d, ok := w.Describe("x")
	require.True(t, ok)
	assert.Equal(t, 1, d.Value)
	assert.True(t, d.Writable)
	assert.True(t, d.Enumerable)
	assert.True(t, d.Configurable)
}

func TestWrapper_DescribeOnlyOverlay(t *testing.T) {
	base := sharedBase()
	w := New(base)

	_, ok := w.Describe("path")
	assert.False(t, ok)
	assert.True(t, w.Has("path"))
	v, ok := w.Get("path")
	require.True(t, ok)
	assert.Equal(t, "/", v)

	w.Delete("path")
	_, ok = w.Describe("path")
	assert.False(t, ok)

	_, ok = w.Describe("nope")
	assert.False(t, ok)
}

func TestWrapper_DefineDropsFlags(t *testing.T) {
	base := sharedBase()
	w := New(base)
	w.Define("path", Descriptor{Value: "/d"})

	d, ok := w.Describe("path")
	require.True(t, ok)
	assert.Equal(t, plain("/d"), d)

	v, _ := base.Get("path")
	assert.Equal(t, "/", v)
}

func TestWrapper_SeesLaterBaseWrites(t *testing.T) {
	base := sharedBase()
	w := New(base)
	w.Set("path", "/mine")

	base.Set("path", "/changed")
	base.Set("httpOnly", true)

	v, _ := w.Get("path")
	assert.Equal(t, "/mine", v)
	v, ok := w.Get("httpOnly")
	require.True(t, ok)
	assert.Equal(t, true, v)
	assert.Contains(t, w.OwnKeys(), "httpOnly")
}

func TestWrapper_GetWalksBasePrototype(t *testing.T) {
	root := FromValues(map[string]any{"inherited": "yes"}, "inherited")
	base := NewMap(root)
	w := New(base)

	v, ok := w.Get("inherited")
	require.True(t, ok)
	assert.Equal(t, "yes", v)
	assert.False(t, w.Has("inherited"))
	assert.Empty(t, w.OwnKeys())
}

func TestWrapper_Nested(t *testing.T) {
	base := sharedBase()
	outer := New(base)
	outer.Set("domain", "example.com")
	inner := New(outer)
	inner.Set("path", "/inner")
	inner.Delete("domain")

	v, _ := outer.Get("domain")
	assert.Equal(t, "example.com", v)
	v, _ = outer.Get("path")
	assert.Equal(t, "/", v)
	assert.Equal(t, []string{"path", "secure"}, inner.OwnKeys())
	assert.Equal(t, []string{"path", "secure", "domain"}, outer.OwnKeys())
}

func TestWrapper_Snapshot(t *testing.T) {
	w := New(sharedBase())
	w.Set("name", "sid")
	w.Delete("secure")

	assert.Equal(t, map[string]any{"path": "/", "name": "sid"}, Snapshot(w))
}

// Views created on top of one isolated origin must not see each other.
func TestWrapper_ViewsOverIsolatedOrigin(t *testing.T) {
	t.Run("property assignments", func(t *testing.T) {
		origin := New(NewMap(nil))
		a, b := New(origin), New(origin)
		a.Set("a", 1)
		_, ok := b.Get("a")
		assert.False(t, ok)
	})

	t.Run("property assignments with define", func(t *testing.T) {
		origin := New(NewMap(nil))
		a, b := New(origin), New(origin)
		a.Define("a", Descriptor{Value: 1})
		_, ok := b.Get("a")
		assert.False(t, ok)
	})

	t.Run("property deletions", func(t *testing.T) {
		origin := New(NewMap(nil))
		a, b := New(origin), New(origin)
		b.Set("a", 2)
		a.Set("a", 1)
		a.Delete("a")
		v, ok := b.Get("a")
		require.True(t, ok)
		assert.Equal(t, 2, v)
	})

	t.Run("own keys", func(t *testing.T) {
		origin := New(NewMap(nil))
		a, b := New(origin), New(origin)
		a.Set("a", 1)
		assert.Equal(t, []string{"a"}, a.OwnKeys())
		assert.Empty(t, b.OwnKeys())
	})

	t.Run("has own", func(t *testing.T) {
		origin := New(NewMap(nil))
		a, b := New(origin), New(origin)
		a.Set("a", 1)
		assert.True(t, a.Has("a"))
		assert.False(t, b.Has("a"))
	})

	t.Run("describe", func(t *testing.T) {
		origin := New(NewMap(nil))
		a, b := New(origin), New(origin)
		a.Set("a", 1)
		d, ok := a.Describe("a")
		require.True(t, ok)
		assert.Equal(t, 1, d.Value)
		_, ok = b.Describe("a")
		assert.False(t, ok)
	})
}

// Distinct wrappers over one base are used from many goroutines while
// the base is read directly. Run with -race.
func TestWrapper_ConcurrentViewsShareBase(t *testing.T) {
	base := sharedBase()
	want := base.OwnKeys()

	const workers = 32
	var wg sync.WaitGroup
	errs := make(chan error, 2*workers)
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				w := New(base)
				own := fmt.Sprintf("w%d", i)
				w.Set("path", own)
				w.Set(own, j)
				w.Delete("secure")
				if v, _ := w.Get("path"); v != own {
					errs <- fmt.Errorf("worker %d: path = %v", i, v)
					return
				}
				if keys := w.OwnKeys(); len(keys) != 2 || keys[0] != "path" || keys[1] != own {
					errs <- fmt.Errorf("worker %d: keys = %v", i, keys)
					return
				}
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if v, _ := base.Get("path"); v != "/" {
					errs <- fmt.Errorf("base path = %v", v)
					return
				}
				if !base.Has("secure") || len(base.OwnKeys()) != 2 {
					errs <- fmt.Errorf("base keys = %v", base.OwnKeys())
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Equal(t, want, base.OwnKeys())
	assert.Equal(t, map[string]any{"path": "/", "secure": true}, Snapshot(base))
}
