package fileutils_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"davbak/fileutils"
)

func TestWatchFile_NotChanged(t *testing.T) {
	testPath := filepath.Join(t.TempDir(), "davbak.env")
	require.NoError(t, os.WriteFile(testPath, data, 0600))

	notify := make(chan struct{})
	defer close(notify)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher, err := fileutils.WatchFile(ctx, testPath, notify, func(err error) {
		t.Error(err)
	})
	require.NoError(t, err)

	notify <- struct{}{}

	select {
	case <-watcher:
		t.Errorf("expected no change")
	case <-time.After(1 * time.Second):
		// ok
	}
}

func TestWatchFile_Changed(t *testing.T) {
	testPath := filepath.Join(t.TempDir(), "davbak.env")
	require.NoError(t, os.WriteFile(testPath, data, 0600))

	notify := make(chan struct{})
	defer close(notify)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher, err := fileutils.WatchFile(ctx, testPath, notify, func(err error) {
		t.Error(err)
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(testPath, append(data, data...), 0600))

	notify <- struct{}{}

	select {
	case <-watcher:
		// ok
	case <-time.After(1 * time.Second):
		t.Errorf("expected change")
	}
}
