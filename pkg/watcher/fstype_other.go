//go:build !linux

package watcher

// DetectFilesystemType classifies the filesystem holding path. Only Linux
// is inspected; elsewhere the type is unknown and fsnotify is used.
func DetectFilesystemType(path string) FilesystemType {
	return FSTypeUnknown
}
