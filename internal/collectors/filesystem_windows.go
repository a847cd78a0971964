// Copyright (c) 2025 Michael D Henderson. All rights reserved.

//go:build windows

package collectors

import "io/fs"

func fileOwnerGroup(info fs.FileInfo) (owner, group string) {
	return "", ""
}
