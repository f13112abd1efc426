package pidfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_WritesCurrentPID(t *testing.T) {
	pf := New(filepath.Join(t.TempDir(), "serve.pid"))

	require.NoError(t, pf.Acquire())

	data, err := os.ReadFile(pf.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(data)))

	pid, ok := pf.Owner()
	assert.True(t, ok)
	assert.Equal(t, os.Getpid(), pid)
}

func TestAcquire_IsReentrantForOwner(t *testing.T) {
	pf := New(filepath.Join(t.TempDir(), "serve.pid"))
	require.NoError(t, pf.Acquire())

	assert.NoError(t, pf.Acquire())
}

func TestAcquire_ReplacesStaleAndGarbageFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "garbage", content: "not-a-pid"},
		// PIDs are capped far below this on every supported platform
		{name: "dead_process", content: "2147483600"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "serve.pid")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			pf := New(path)

			require.NoError(t, pf.Acquire())

			pid, ok := pf.Owner()
			assert.True(t, ok)
			assert.Equal(t, os.Getpid(), pid)
		})
	}
}

func TestAcquire_FailsWhileAnotherProcessIsAlive(t *testing.T) {
	// The parent of the test binary is alive for the whole run
	path := filepath.Join(t.TempDir(), "serve.pid")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getppid())), 0o644))
	pf := New(path)

	err := pf.Acquire()

	assert.True(t, errors.Is(err, ErrAlreadyRunning))
}

func TestRelease(t *testing.T) {
	t.Run("removes_own_file", func(t *testing.T) {
		pf := New(filepath.Join(t.TempDir(), "serve.pid"))
		require.NoError(t, pf.Acquire())

		require.NoError(t, pf.Release())

		_, err := os.Stat(pf.Path())
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("keeps_foreign_file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "serve.pid")
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getppid())), 0o644))

		require.NoError(t, New(path).Release())

		_, err := os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("missing_file", func(t *testing.T) {
		assert.NoError(t, New(filepath.Join(t.TempDir(), "none.pid")).Release())
	})
}

func TestTerminate_NoLiveOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serve.pid")
	require.NoError(t, os.WriteFile(path, []byte("2147483600"), 0o644))

	assert.NoError(t, New(path).Terminate(time.Second))
}
