package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/benz9527/xbst/lib/infra"
)

type StopFunc func() error

// Watch reloads the config on every write or create of the file and hands
// the valid result to onChange. Invalid reloads go to onError, if set.
// The directory is watched instead of the file, so editors replacing the
// file by rename are still observed.
func Watch(path string, onChange func(Config), onError func(error)) (StopFunc, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, infra.WrapErrorStack(err)
	}

	var watcher *fsnotify.Watcher
	if watcher, err = fsnotify.NewWatcher(); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "failed to create config watcher")
	}
	if err = watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, infra.WrapErrorStackWithMessage(err, "failed to add config directory to watcher")
	}

	report := func(err error) {
		if err != nil && onError != nil {
			onError(err)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load(abs)
				if err != nil {
					report(err)
					continue
				}
				if onChange != nil {
					onChange(cfg)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				report(infra.WrapErrorStack(err))
			}
		}
	}()

	var once sync.Once
	return func() error {
		var err error
		once.Do(func() {
			err = watcher.Close()
			<-done
		})
		return err
	}, nil
}
