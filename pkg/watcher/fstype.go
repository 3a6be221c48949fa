package watcher

// FilesystemType is a best-effort classification of the filesystem holding a
// watched path. Remote filesystems deliver inotify events unreliably (or not
// at all), so the watcher falls back to polling on them.
type FilesystemType int

const (
	FSTypeUnknown FilesystemType = iota
	FSTypeLocal
	FSTypeNFS
	FSTypeSMB
	FSTypeSSHFS
	FSTypeFUSE
)

// detectFilesystemTypeFunc is an indirection point for tests that need to
// simulate remote filesystems.
var detectFilesystemTypeFunc = DetectFilesystemType

// String returns a human-readable name for the filesystem type.
func (t FilesystemType) String() string {
	switch t {
	case FSTypeLocal:
		return "local"
	case FSTypeNFS:
		return "nfs"
	case FSTypeSMB:
		return "smb"
	case FSTypeSSHFS:
		return "sshfs"
	case FSTypeFUSE:
		return "fuse"
	default:
		return "unknown"
	}
}

// isRemoteFilesystem reports whether inotify cannot be trusted on this
// filesystem. FUSE counts as remote: sshfs and friends are the common case.
func isRemoteFilesystem(t FilesystemType) bool {
	switch t {
	case FSTypeNFS, FSTypeSMB, FSTypeSSHFS, FSTypeFUSE:
		return true
	default:
		return false
	}
}
