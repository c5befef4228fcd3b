package oracle

import (
	"context"

	"github.com/fsnotify/fsnotify"
)

// Watch watches root for directory create/remove events and calls
// onChange with the affected path, so a long-running daemon can trigger a
// targeted re-probe instead of a full Refresh. It blocks until ctx is
// cancelled or the watcher fails to start, and always closes the
// underlying watcher before returning.
func Watch(ctx context.Context, root string, onChange func(path string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				onChange(event.Name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
}
