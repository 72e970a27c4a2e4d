// Package archive enumerates source documents stored in zip containers.
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"golang.org/x/text/encoding"
)

// WalkFunc is the type of the function called for each document in the
// container visited by Walk. The container argument is the path passed to
// Walk, file is the matching zip entry and name is its decoded name. If an
// error is returned, processing stops.
type WalkFunc func(container string, file *zip.File, name string) error

// Walk visits regular files in the container whose decoded name satisfies
// match, in natural name order, calling walkFn for each. Entry names flagged
// as non-UTF8 are decoded with decoder when one is supplied. Entries with
// path traversal components ("..") or absolute paths abort the walk to
// prevent Zip Slip attacks.
func Walk(container string, match func(name string) bool, decoder *encoding.Decoder, walkFn WalkFunc) error {

	r, err := zip.OpenReader(container)
	if err != nil {
		return err
	}
	defer r.Close()

	type entry struct {
		file *zip.File
		name string
	}

	var entries []entry
	for _, f := range r.File {
		name := f.FileHeader.Name
		if f.NonUTF8 && decoder != nil {
			decoded, err := decoder.String(name)
			if err != nil {
				return fmt.Errorf("zip entry %q: decoding name: %w", name, err)
			}
			name = decoded
		}
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !match(name) {
			continue
		}
		entries = append(entries, entry{file: f, name: name})
	}

	// deterministic order regardless of how the container was packed
	sort.Slice(entries, func(i, j int) bool {
		return natural.Less(entries[i].name, entries[j].name)
	})

	for _, e := range entries {
		if err := walkFn(container, e.file, e.name); err != nil {
			return err
		}
	}
	return nil
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
