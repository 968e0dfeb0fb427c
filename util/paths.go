// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"os"
	"path/filepath"
)

const directoryMode = 0700

// EnsureAbsolute - ensure the path is absolute
// if not, prepend the directory to make absolute path
func EnsureAbsolute(directory string, filePath string) string {
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(directory, filePath)
	}
	return filepath.Clean(filePath)
}

// EnsureFileExists - true if anything exists at name
func EnsureFileExists(name string) bool {
	_, err := os.Stat(name)
	return nil == err
}

// EnsureDirectories - create any missing directories, owner access only
//
// stops at the first failure
func EnsureDirectories(directories ...string) error {
	for _, d := range directories {
		if "" == d {
			continue
		}
		if err := os.MkdirAll(d, directoryMode); nil != err {
			return err
		}
	}
	return nil
}
