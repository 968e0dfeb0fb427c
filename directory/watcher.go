// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package directory

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Run - reload the parties file whenever it changes
//
// the containing directory is watched so files replaced by rename are
// still seen
func (d *Directory) Run(args interface{}, shutdown <-chan struct{}) {
	log := d.log

	filePath, err := filepath.Abs(filepath.Clean(d.fileName))
	if nil != err {
		log.Errorf("parties file: %q  error: %s", d.fileName, err)
		<-shutdown
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if nil != err {
		log.Errorf("new watcher error: %s", err)
		<-shutdown
		return
	}
	defer watcher.Close()

	err = watcher.Add(filepath.Dir(filePath))
	if nil != err {
		log.Errorf("watcher add error: %s", err)
		<-shutdown
		return
	}

	log.Infof("watching: %q", filePath)

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case event, ok := <-watcher.Events:
			if !ok {
				break loop
			}
			if filepath.Clean(event.Name) != filePath {
				continue loop
			}
			log.Debugf("file event: %s", event)
			if isChange(event) {
				d.Reload()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				break loop
			}
			log.Errorf("watcher error: %s", err)
		}
	}
	log.Info("watcher stopped")
}

func isChange(event fsnotify.Event) bool {
	return event.Op&fsnotify.Write == fsnotify.Write ||
		event.Op&fsnotify.Create == fsnotify.Create
}
