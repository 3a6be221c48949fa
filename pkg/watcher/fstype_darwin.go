//go:build darwin

package watcher

import (
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// DetectFilesystemType classifies the filesystem holding path. Statting the
// parent directory keeps this working for files that do not exist yet.
func DetectFilesystemType(path string) FilesystemType {
	if path == "" {
		return FSTypeUnknown
	}
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		if err := unix.Statfs(filepath.Dir(path), &st); err != nil {
			return FSTypeUnknown
		}
	}

	name := strings.TrimRight(string(st.Fstypename[:]), "\x00")
	switch {
	case name == "nfs":
		return FSTypeNFS
	case name == "smbfs" || name == "cifs":
		return FSTypeSMB
	case strings.HasPrefix(name, "fuse") || name == "osxfuse" || name == "macfuse":
		return FSTypeFUSE
	default:
		return FSTypeLocal
	}
}
