package cache

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/zeebo/xxh3"
)

// DigestFile returns the xxh3 digest of one file's content.
func DigestFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return h.Sum64(), nil
}

// DigestFiles returns one digest covering the path and content of every file.
// The result does not depend on the order of paths; renaming, adding or
// removing a file changes it.
func DigestFiles(paths []string) (uint64, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	h := xxh3.New()
	for _, path := range sorted {
		content, err := DigestFile(path)
		if err != nil {
			return 0, err
		}
		fmt.Fprintf(h, "%s\x00%016x\n", path, content)
	}
	return h.Sum64(), nil
}
