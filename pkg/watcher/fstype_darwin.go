//go:build darwin

package watcher

import (
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

func detectFilesystemType(path string) FilesystemType {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FSTypeUnknown
	}

	var st unix.Statfs_t
	p := abs
	for {
		if err := unix.Statfs(p, &st); err == nil {
			break
		}
		parent := filepath.Dir(p)
		if parent == p {
			return FSTypeUnknown
		}
		p = parent
	}

	name := unix.ByteSliceToString(st.Fstypename[:])
	switch {
	case name == "nfs":
		return FSTypeNFS
	case name == "smbfs" || name == "cifs":
		return FSTypeSMB
	case strings.Contains(name, "sshfs"):
		return FSTypeSSHFS
	case strings.HasPrefix(name, "fuse") ||
		strings.HasPrefix(name, "osxfuse") ||
		strings.HasPrefix(name, "macfuse"):
		return FSTypeFUSE
	}
	return FSTypeLocal
}
