package fileutils

import (
	"context"
)

// WatchFile watches a file for content changes and emits an event when it
// changes. Polling is driven by the ticker channel so callers control the
// cadence.
func WatchFile(ctx context.Context, path string, ticker <-chan struct{}, onErr func(err error)) (chan struct{}, error) {
	ch := make(chan struct{})

	lastDigest, err := FileDigest(path)
	if err != nil {
		return nil, err
	}

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker:
				newDigest, err := FileDigest(path)
				if err != nil {
					onErr(err)
				}
				if newDigest != 0 && lastDigest != newDigest {
					lastDigest = newDigest
					ch <- struct{}{}
				}
			}
		}
	}()

	return ch, nil
}
