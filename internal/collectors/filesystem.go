// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package collectors

import (
	"fmt"
	"io/fs"
	"os"
)

// FileSystemCollector collects a single file's existence/permission/owner
// metadata via stat(2). It never reads file content — a separate
// JSONRecordCollector handles structured content.
type FileSystemCollector struct{}

// Collect expects a "path" parameter and returns one object describing
// that path.
func (FileSystemCollector) Collect(params map[string]string) ([]map[string]any, error) {
	path, ok := params["path"]
	if !ok || path == "" {
		return nil, fmt.Errorf("collectors: filesystem collector requires a \"path\" field")
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return []map[string]any{{
			"exists":     false,
			"path":       path,
			"file_mode":  "",
			"file_owner": "",
			"file_group": "",
		}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("collectors: stat %q: %w", path, err)
	}
	owner, group := ownerGroup(info)
	return []map[string]any{{
		"exists":     true,
		"path":       path,
		"file_mode":  fmt.Sprintf("%04o", info.Mode().Perm()),
		"file_owner": owner,
		"file_group": group,
		"size":       info.Size(),
		"is_dir":     info.IsDir(),
	}}, nil
}

// ownerGroup resolves a file's owner/group as fileOwnerGroup reports them
// (on Unix, the user/group name when lookup succeeds, else the numeric
// id). Platform-specific
// uid/gid extraction lives behind fileOwnerGroup so this file stays
// buildable on every GOOS the rest of the module targets.
func ownerGroup(info fs.FileInfo) (owner, group string) {
	return fileOwnerGroup(info)
}
