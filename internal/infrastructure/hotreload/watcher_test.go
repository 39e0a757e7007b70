package hotreload

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type reloadRecorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *reloadRecorder) reload(_ context.Context, changed []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, changed)
	return nil
}

func (r *reloadRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestFileWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "catalog.yaml")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(watched, []byte("a"), 0o600))

	rec := &reloadRecorder{}
	fw, err := NewFileWatcher([]string{watched}, rec.reload, zaptest.NewLogger(t), WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	fw.Start()
	defer fw.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(watched, []byte{byte('b' + i)}, 0o600))
	}
	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o600))

	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	// no further calls once the burst is over
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, rec.count())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	abs, _ := filepath.Abs(watched)
	assert.Equal(t, []string{abs}, rec.calls[0])
}

func TestFileWatcher_SeesReplacedFile(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "presets.yaml")
	require.NoError(t, os.WriteFile(watched, []byte("a"), 0o600))

	rec := &reloadRecorder{}
	fw, err := NewFileWatcher([]string{watched}, rec.reload, zaptest.NewLogger(t), WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	fw.Start()
	defer fw.Stop()

	tmp := filepath.Join(dir, "presets.yaml.new")
	require.NoError(t, os.WriteFile(tmp, []byte("b"), 0o600))
	require.NoError(t, os.Rename(tmp, watched))

	assert.Eventually(t, func() bool { return rec.count() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestNewFileWatcher_Errors(t *testing.T) {
	rec := &reloadRecorder{}

	_, err := NewFileWatcher(nil, rec.reload, zaptest.NewLogger(t))
	assert.Error(t, err)

	_, err = NewFileWatcher([]string{filepath.Join(t.TempDir(), "missing", "catalog.yaml")}, rec.reload, zaptest.NewLogger(t))
	assert.Error(t, err)
}
