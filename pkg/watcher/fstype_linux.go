//go:build linux

package watcher

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Magic numbers from statfs(2).
const (
	nfsSuperMagic   = 0x6969
	smbSuperMagic   = 0x517b
	smb2SuperMagic  = 0xfe534d42
	cifsSuperMagic  = 0xff534d42
	fuseSuperMagic  = 0x65735546
	ext4SuperMagic  = 0xef53
	btrfsSuperMagic = 0x9123683e
	xfsSuperMagic   = 0x58465342
	tmpfsSuperMagic = 0x01021994
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

	switch uint32(st.Type) {
	case nfsSuperMagic:
		return FSTypeNFS
	case smbSuperMagic, smb2SuperMagic, cifsSuperMagic:
		return FSTypeSMB
	case fuseSuperMagic:
		return FSTypeFUSE
	case ext4SuperMagic, btrfsSuperMagic, xfsSuperMagic, tmpfsSuperMagic:
		return FSTypeLocal
	default:
		return FSTypeLocal
	}
}
