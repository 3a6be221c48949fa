//go:build !linux && !darwin

package watcher

// DetectFilesystemType has no statfs information on this platform; assume
// local and let fsnotify errors drive the polling fallback.
func DetectFilesystemType(path string) FilesystemType {
	return FSTypeUnknown
}
