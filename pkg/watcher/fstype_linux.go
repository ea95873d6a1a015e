//go:build linux

package watcher

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// statfs(2) magic numbers for the filesystems we care about.
const (
	nfsSuperMagic  = 0x6969
	smbSuperMagic  = 0x517b
	cifsMagic      = 0xff534d42
	smb2Magic      = 0xfe534d42
	fuseSuperMagic = 0x65735546
)

func detectFilesystemType(path string) FilesystemType {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FSTypeUnknown
	}

	// /proc/self/mounts names the concrete fuse variant (fuse.sshfs),
	// which the statfs magic cannot distinguish.
	if t, ok := detectFromMounts(abs); ok {
		return t
	}
	return detectFromStatfs(abs)
}

// detectFromMounts matches the longest mount point covering the path
// and maps its filesystem type string.
func detectFromMounts(path string) (FilesystemType, bool) {
	f, err := os.Open("/proc/self/mounts")
	if err != nil {
		return FSTypeUnknown, false
	}
	defer f.Close()

	best := ""
	bestType := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		// Mount paths escape spaces as \040.
		mp := strings.ReplaceAll(fields[1], `\040`, " ")
		if !coversPath(mp, path) {
			continue
		}
		if len(mp) > len(best) {
			best = mp
			bestType = fields[2]
		}
	}
	if err := scanner.Err(); err != nil || best == "" {
		return FSTypeUnknown, false
	}

	switch {
	case bestType == "nfs" || bestType == "nfs4":
		return FSTypeNFS, true
	case bestType == "cifs" || bestType == "smb3" || bestType == "smbfs":
		return FSTypeSMB, true
	case bestType == "fuse.sshfs":
		return FSTypeSSHFS, true
	case strings.HasPrefix(bestType, "fuse"):
		return FSTypeFUSE, true
	}
	return FSTypeLocal, true
}

func coversPath(mountPoint, path string) bool {
	if mountPoint == "/" {
		return true
	}
	return path == mountPoint || strings.HasPrefix(path, mountPoint+"/")
}

// detectFromStatfs walks up to the nearest existing parent and checks
// the superblock magic.
func detectFromStatfs(path string) FilesystemType {
	var st unix.Statfs_t
	p := path
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

	switch uint32(st.Type) {
	case nfsSuperMagic:
		return FSTypeNFS
	case smbSuperMagic, cifsMagic, smb2Magic:
		return FSTypeSMB
	case fuseSuperMagic:
		return FSTypeFUSE
	}
	return FSTypeLocal
}
