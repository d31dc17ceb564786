//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package bytesource

// OpenMmap falls back to a plain file source where mmap is unavailable
func OpenMmap(path string) (Source, error) {
	return OpenFile(path)
}
