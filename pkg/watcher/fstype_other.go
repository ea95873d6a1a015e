//go:build !linux && !darwin

package watcher

// No magic-number table for this platform; report unknown and let
// fsnotify try first.
func detectFilesystemType(string) FilesystemType {
	return FSTypeUnknown
}
