package deck

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce groups the burst of events an editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Watch reloads the deck in dir whenever its dataset or a template changes
// and passes every successful reload to fn. Reload errors are logged and the
// previous deck stays in use. Watch blocks until ctx is done.
func Watch(ctx context.Context, dir string, log zerolog.Logger, fn func(*Deck)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	cards := filepath.Join(dir, "cards")
	if err := watcher.Add(cards); err != nil {
		log.Debug().Err(err).Str("dir", cards).Msg("card templates not watched")
	}

	var (
		mu       sync.Mutex
		debounce *time.Timer
		wg       sync.WaitGroup
	)
	reload := func() {
		defer wg.Done()
		if ctx.Err() != nil {
			return
		}
		d, err := Open(dir)
		if err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("deck reload failed")
			return
		}
		log.Info().Str("dir", dir).Msg("deck reloaded")
		fn(d)
	}
	defer func() {
		mu.Lock()
		if debounce != nil && debounce.Stop() {
			wg.Done()
		}
		mu.Unlock()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			mu.Lock()
			if debounce != nil && debounce.Stop() {
				wg.Done()
			}
			wg.Add(1)
			debounce = time.AfterFunc(DefaultDebounce, reload)
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("deck watcher error")
		}
	}
}

func relevant(name string) bool {
	base := filepath.Base(name)
	return base == DatasetFile || filepath.Ext(base) == ".html"
}
