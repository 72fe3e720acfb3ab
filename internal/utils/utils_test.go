package utils

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiry(t *testing.T) {
	c, err := NewTTLCache[string, int](2, time.Minute)
	require.NoError(t, err)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewTTLCache[string, int](2, time.Minute)
	require.NoError(t, err)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestTTLCacheSetIfCurrent(t *testing.T) {
	c, err := NewTTLCache[string, int](4, time.Minute)
	require.NoError(t, err)

	gen := c.Generation("k")
	c.Delete("k") // invalidated while the value was being built
	assert.False(t, c.SetIfCurrent("k", 1, gen))
	_, ok := c.Get("k")
	assert.False(t, ok)

	assert.True(t, c.SetIfCurrent("k", 2, c.Generation("k")))
	v, _ := c.Get("k")
	assert.Equal(t, 2, v)
}

func TestTTLCacheGenerationsStayBounded(t *testing.T) {
	c, err := NewTTLCache[string, int](2, time.Minute)
	require.NoError(t, err)

	gen := c.Generation("a")
	c.Delete("a")
	for i := 0; i < 50; i++ {
		c.Delete(fmt.Sprintf("host-%d", i))
	}
	assert.LessOrEqual(t, c.gen.Len(), 8)

	// the stamp for "a" is gone but the stale fill is still refused
	assert.False(t, c.SetIfCurrent("a", 1, gen))
	assert.True(t, c.SetIfCurrent("a", 2, c.Generation("a")))
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestIntOr(t *testing.T) {
	assert.Equal(t, 3, IntOr("3", 1))
	assert.Equal(t, 1, IntOr("", 1))
	assert.Equal(t, 20, IntOr("twenty", 20))
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"", "0", "-1", "abc", "1.5"} {
		_, err := ParseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := RenderMarkdown("Meet at **court 3**\n\n<img src=x onerror=alert(1)>\n\n![map](https://example.com/map.png)")
	assert.Contains(t, out, "<strong>court 3</strong>")
	assert.NotContains(t, out, "onerror")
	assert.Contains(t, out, `loading="lazy"`)
	assert.Contains(t, out, `referrerpolicy="no-referrer"`)
}

func TestRenderMarkdownEmbedsYouTube(t *testing.T) {
	out := RenderMarkdown("https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10")
	assert.Contains(t, out, "https://www.youtube.com/embed/dQw4w9WgXcQ")

	out = RenderMarkdown(`https://youtu.be/bad"id`)
	assert.NotContains(t, out, "iframe")
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("battery staple", hash))
}

func TestCalculateScore(t *testing.T) {
	now := time.Now()
	fresh := CalculateScore(now.Add(-time.Hour), now, 5, 0, 2)
	stale := CalculateScore(now.Add(-48*time.Hour), now, 5, 0, 2)
	assert.Greater(t, fresh, stale)

	assert.Equal(t, 0.0, CalculateScore(now, now, 0, 10, 0))
	assert.Greater(t, CalculateScore(now, now, 3, 0, 0), CalculateScore(now, now, 1, 0, 0))
}

func TestRandomAvatar(t *testing.T) {
	assert.Contains(t, avatars, RandomAvatar())
}
