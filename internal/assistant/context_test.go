package assistant

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/devpad-platform/devpad/internal/projects"
)

// fileWithTokens builds a file whose estimated cost is exactly n tokens.
func fileWithTokens(name string, n int, modified time.Time) projects.File {
	return projects.File{
		Filename:     name,
		Content:      strings.Repeat("a", n*4),
		Size:         n * 4,
		LastModified: modified,
	}
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("a"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"), "rounds up")
	assert.Equal(t, 25, EstimateTokens(strings.Repeat("x", 100)))
}

func TestSelectContext_StopsAtFirstOverflow(t *testing.T) {
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	files := []projects.File{
		fileWithTokens("newest.go", 100, base.Add(3*time.Hour)),
		fileWithTokens("middle.go", 50, base.Add(2*time.Hour)),
		fileWithTokens("oldest.go", 30, base.Add(1*time.Hour)),
	}

	// 100 fits; 100+50=150 > 140 overflows, and the walk stops rather than
	// trying oldest.go (30) which would still fit.
	selected := SelectContext(files, 140)
	assert.Len(t, selected, 1)
	assert.Equal(t, "newest.go", selected[0].Filename)
}

func TestSelectContext_OrdersByRecency(t *testing.T) {
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	files := []projects.File{
		fileWithTokens("old.go", 10, base),
		fileWithTokens("new.go", 10, base.Add(time.Hour)),
		fileWithTokens("newest.go", 10, base.Add(2*time.Hour)),
	}

	selected := SelectContext(files, 1000)
	assert.Len(t, selected, 3)
	assert.Equal(t, "newest.go", selected[0].Filename)
	assert.Equal(t, "new.go", selected[1].Filename)
	assert.Equal(t, "old.go", selected[2].Filename)
}

func TestSelectContext_StableOnEqualTimestamps(t *testing.T) {
	ts := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	files := []projects.File{
		fileWithTokens("a.go", 10, ts),
		fileWithTokens("b.go", 10, ts),
		fileWithTokens("c.go", 10, ts),
	}

	selected := SelectContext(files, 1000)
	assert.Equal(t, "a.go", selected[0].Filename)
	assert.Equal(t, "b.go", selected[1].Filename)
	assert.Equal(t, "c.go", selected[2].Filename)
}

func TestSelectContext_NeverExceedsBudget(t *testing.T) {
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	files := []projects.File{
		fileWithTokens("a.go", 60, base.Add(3*time.Hour)),
		fileWithTokens("b.go", 40, base.Add(2*time.Hour)),
		fileWithTokens("c.go", 40, base.Add(1*time.Hour)),
	}

	selected := SelectContext(files, 100)
	total := 0
	for i := range selected {
		total += EstimateTokens(selected[i].Content)
	}
	assert.LessOrEqual(t, total, 100)
	assert.Len(t, selected, 2)
}

func TestSelectContext_EdgeCases(t *testing.T) {
	base := time.Now().UTC()

	assert.Nil(t, SelectContext(nil, 100), "empty file list")

	big := []projects.File{fileWithTokens("huge.go", 500, base)}
	assert.Nil(t, SelectContext(big, 100), "a single oversized file is never truncated")

	some := []projects.File{fileWithTokens("a.go", 1, base)}
	assert.Nil(t, SelectContext(some, 0), "zero budget")
	assert.Nil(t, SelectContext(some, -5), "negative budget")

	exact := []projects.File{fileWithTokens("a.go", 100, base)}
	assert.Len(t, SelectContext(exact, 100), 1, "exact fit is accepted")
}
