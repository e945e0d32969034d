// Package archive handles submission intake: discovering student tar.gz
// bundles, extracting them next to the archive, collecting the graded
// target files, and removing the extracted trees when the run is done.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mquinn/doppel/internal/fileproc"
)

const archiveSuffix = ".tar.gz"

// Discover walks root and returns every *.tar.gz below it, in walk order.
func Discover(root string) ([]string, error) {
	var archives []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), archiveSuffix) {
			archives = append(archives, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s for archives: %w", root, err)
	}
	return archives, nil
}

// ExtractDir is the destination for one archive: a sibling directory named
// after the archive without its .tar.gz suffix.
func ExtractDir(archivePath string) string {
	base := strings.TrimSuffix(filepath.Base(archivePath), archiveSuffix)
	return filepath.Join(filepath.Dir(archivePath), base)
}

// errNotGzip marks an archive whose content is not gzip despite the
// extension.
var errNotGzip = errors.New("not a gzip stream")

// Extract unpacks one archive into destDir. Submissions are not always
// compressed despite the extension, so a failed gzip header falls back to
// plain tar; any other failure surfaces as-is rather than being masked by
// a second pass over the same bytes.
func Extract(archivePath, destDir string) error {
	err := extractWith(archivePath, destDir, true)
	if err == nil {
		return nil
	}
	if errors.Is(err, errNotGzip) {
		err = extractWith(archivePath, destDir, false)
	}
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", archivePath, err)
	}
	return nil
}

func extractWith(archivePath, destDir string, gzipped bool) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	if gzipped {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("%w: %v", errNotGzip, err)
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := sanitizePath(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, hdr.FileInfo().Mode()); err != nil {
				return err
			}
		default:
			// Symlinks and devices in a submission are never graded.
		}
	}
}

// sanitizePath rejects entries that would escape destDir. An entry that
// resolves to destDir itself (the "./" directory entry tar emits for
// `tar -C dir -czf out.tar.gz .`) is allowed.
func sanitizePath(destDir, name string) (string, error) {
	clean := filepath.Clean(destDir)
	target := filepath.Join(destDir, filepath.Clean(name))
	if target != clean && !strings.HasPrefix(target, clean+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes extraction directory", name)
	}
	return target, nil
}

func writeEntry(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, r)
	return err
}

// ExtractAll unpacks every archive in parallel and returns the extraction
// directories. A failed archive is reported in errs and skipped; the rest
// still extract.
func ExtractAll(archives []string, workers int, onProgress fileproc.ProgressFunc) (dirs []string, errs *fileproc.ProcessingErrors) {
	dirs = make([]string, 0, len(archives))
	for _, a := range archives {
		dirs = append(dirs, ExtractDir(a))
	}

	errs = fileproc.ForEachCollectErrors(archives, workers,
		func(a string) string { return a },
		func(a string) error { return Extract(a, ExtractDir(a)) },
		onProgress)
	return dirs, errs
}

// CollectTargets walks each extracted directory and returns every file whose
// name ends with targetName, in walk order. Files matched by skip (macOS
// resource forks and other junk) are ignored.
func CollectTargets(dirs []string, targetName string, skip func(name string) bool) []string {
	var targets []string
	for _, dir := range dirs {
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), targetName) {
				return nil
			}
			if skip != nil && skip(d.Name()) {
				return nil
			}
			targets = append(targets, path)
			return nil
		})
	}
	return targets
}

// Cleanup removes extraction directories in parallel. Errors are ignored;
// leftover directories are an inconvenience, not a failure.
func Cleanup(dirs []string, workers int) {
	fileproc.ForEachCollectErrors(dirs, workers,
		func(d string) string { return d },
		func(d string) error {
			os.RemoveAll(d)
			return nil
		},
		nil)
}
