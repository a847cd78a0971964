// Copyright (c) 2025 Michael D Henderson. All rights reserved.

//go:build !windows

package collectors

import (
	"fmt"
	"io/fs"
	"os/user"
	"syscall"
)

func fileOwnerGroup(info fs.FileInfo) (owner, group string) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return "", ""
	}
	owner = fmt.Sprintf("%d", st.Uid)
	if u, err := user.LookupId(owner); err == nil {
		owner = u.Username
	}
	group = fmt.Sprintf("%d", st.Gid)
	if g, err := user.LookupGroupId(group); err == nil {
		group = g.Name
	}
	return owner, group
}
