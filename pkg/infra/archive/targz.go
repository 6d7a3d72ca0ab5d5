package archive

import (
	"archive/tar"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/m-mizutani/goerr/v2"
)

// TarGz writes gzip compressed tarballs
type TarGz struct{}

// NewTarGz creates a tar.gz archiver
func NewTarGz() *TarGz {
	return &TarGz{}
}

// Extension returns the archive file extension
func (a *TarGz) Extension() string {
	return "tar.gz"
}

// Archive bundles the contents of srcDir into destPath. The file is written next to
// destPath first and renamed, so a re-run replaces the previous archive atomically.
func (a *TarGz) Archive(ctx context.Context, srcDir, destPath string) error {
	if err := ctx.Err(); err != nil {
		return goerr.Wrap(err, "archive cancelled")
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".convoy-archive-*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary archive", goerr.V("dest", destPath))
	}
	defer os.Remove(tmp.Name())

	if err := WriteTarGz(tmp, srcDir); err != nil {
		tmp.Close()
		return goerr.Wrap(err, "failed to write archive", goerr.V("src", srcDir))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close archive", goerr.V("dest", destPath))
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return goerr.Wrap(err, "failed to set archive permissions", goerr.V("dest", destPath))
	}
	if err := os.Rename(tmp.Name(), destPath); err != nil {
		return goerr.Wrap(err, "failed to move archive into place", goerr.V("dest", destPath))
	}

	return nil
}

// WriteTarGz streams root as a gzip compressed tarball. Entry names are relative to root.
func WriteTarGz(w io.Writer, root string) error {
	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		var link string
		if info.Mode()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}

		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			hdr.Name += "/"
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return goerr.Wrap(err, "failed to walk archive root", goerr.V("root", root))
	}

	if err := tw.Close(); err != nil {
		return goerr.Wrap(err, "failed to finish tar stream")
	}
	if err := gw.Close(); err != nil {
		return goerr.Wrap(err, "failed to finish gzip stream")
	}
	return nil
}

// ExtractTarGz unpacks a gzip compressed tarball into dest. Entries may not leave dest,
// either by name or through a symlink created by an earlier entry.
func ExtractTarGz(r io.Reader, dest string) error {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return goerr.Wrap(err, "failed to open gzip stream")
	}
	defer gr.Close()

	root := filepath.Clean(dest)
	if err := os.MkdirAll(root, 0755); err != nil {
		return goerr.Wrap(err, "failed to create destination", goerr.V("dest", dest))
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return goerr.Wrap(err, "failed to resolve destination", goerr.V("dest", dest))
	}

	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return goerr.Wrap(err, "failed to read tar entry")
		}

		// Security check: prevent path traversal attacks
		destPath := filepath.Join(root, hdr.Name)
		if !strings.HasPrefix(destPath, root+string(os.PathSeparator)) {
			return goerr.New("invalid file path detected", goerr.V("name", hdr.Name), goerr.V("dest", destPath))
		}
		if err := refuseSymlinkParents(root, filepath.Dir(destPath)); err != nil {
			return goerr.Wrap(err, "invalid file path detected", goerr.V("name", hdr.Name))
		}

		mode := fs.FileMode(hdr.Mode).Perm()
		switch hdr.Typeflag {
		case tar.TypeDir:
			if isSymlink(destPath) {
				return goerr.New("directory entry replaces a symlink", goerr.V("name", hdr.Name))
			}
			if err := os.MkdirAll(destPath, mode|0700); err != nil {
				return goerr.Wrap(err, "failed to create directory", goerr.V("path", destPath))
			}
		case tar.TypeReg:
			if isSymlink(destPath) {
				if err := os.Remove(destPath); err != nil {
					return goerr.Wrap(err, "failed to replace symlink", goerr.V("path", destPath))
				}
			}
			if err := writeFile(destPath, tr, mode); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) {
				return goerr.New("absolute symlink in archive", goerr.V("name", hdr.Name), goerr.V("link", hdr.Linkname))
			}
			if !within(root, filepath.Join(filepath.Dir(destPath), hdr.Linkname)) {
				return goerr.New("symlink points outside destination", goerr.V("name", hdr.Name), goerr.V("link", hdr.Linkname))
			}
			if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
				return goerr.Wrap(err, "failed to create parent directories", goerr.V("path", destPath))
			}
			_ = os.Remove(destPath)
			if err := os.Symlink(hdr.Linkname, destPath); err != nil {
				return goerr.Wrap(err, "failed to create symlink", goerr.V("path", destPath))
			}
			// Links through other links are checked on disk; dangling ones were checked above
			if resolved, err := filepath.EvalSymlinks(destPath); err == nil && !within(realRoot, resolved) {
				_ = os.Remove(destPath)
				return goerr.New("symlink points outside destination", goerr.V("name", hdr.Name), goerr.V("link", hdr.Linkname))
			}
		}
	}
}

// within reports whether path is root or below it
func within(root, path string) bool {
	rel, err := filepath.Rel(root, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&fs.ModeSymlink != 0
}

// refuseSymlinkParents fails when any existing directory between dir and root is a symlink
func refuseSymlinkParents(root, dir string) error {
	for d := dir; d != root && within(root, d); d = filepath.Dir(d) {
		if isSymlink(d) {
			return goerr.New("entry is written through a symlink", goerr.V("symlink", d))
		}
	}
	return nil
}

func writeFile(path string, r io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return goerr.Wrap(err, "failed to create parent directories", goerr.V("path", path))
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return goerr.Wrap(err, "failed to create file", goerr.V("path", path))
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return goerr.Wrap(err, "failed to write file", goerr.V("path", path))
	}
	return nil
}
