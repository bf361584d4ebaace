package sat

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, name := range Names() {
		adapter, err := New(name, Options{})
		require.NoError(t, err)
		assert.Equal(t, name, adapter.Name())
	}

	_, err := New("minisat", Options{})
	assert.ErrorContains(t, err, "minisat is not a valid solver")
}

func TestAvailable(t *testing.T) {
	assert.True(t, Available("gophersat", Options{}))
	assert.True(t, Available("gini", Options{}))
	assert.False(t, Available("minisat", Options{}))
	assert.False(t, Available("kissat", Options{Executable: filepath.Join(t.TempDir(), "kissat")}))
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"gini", "gophersat", "kissat"}, Names())
}

func TestOptions(t *testing.T) {
	t.Run("Solution limit", func(t *testing.T) {
		assert.False(t, Options{}.limitReached(1000))
		assert.False(t, Options{SolutionLimit: 3}.limitReached(2))
		assert.True(t, Options{SolutionLimit: 3}.limitReached(3))
	})

	t.Run("Time limit", func(t *testing.T) {
		ctx, cancel := Options{TimeLimit: time.Minute}.context(t.Context())
		defer cancel()
		deadline, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

		ctx, cancel = Options{}.context(t.Context())
		defer cancel()
		_, ok = ctx.Deadline()
		assert.False(t, ok)
	})
}
