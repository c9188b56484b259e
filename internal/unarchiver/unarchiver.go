// Package unarchiver inspects override archives and pulls single entries out
// of them without unpacking the whole archive.
package unarchiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mholt/archives"

	"github.com/pakprep/cli/internal/errs"
)

type Unarchiver struct {
	archives.Extraction
}

func NewZip() Unarchiver {
	return Unarchiver{
		archives.CompressedArchive{
			Extraction: archives.Zip{},
		},
	}
}

// List returns the entry names of the archive in archive enumeration order,
// directories excluded.
func (ua *Unarchiver) List(source string) ([]string, error) {
	archiveFile, err := os.Open(source)
	if err != nil {
		return nil, errs.Wrap(err, "Could not open archive %s", source)
	}
	defer archiveFile.Close()

	var names []string
	err = ua.Extract(context.Background(), archiveFile, func(_ context.Context, file archives.FileInfo) error {
		if file.IsDir() {
			return nil
		}
		names = append(names, file.NameInArchive)
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(err, "Unable to enumerate archive %s", source)
	}

	return names, nil
}

// ExtractEntry stream-copies the named entry to the destination file, without
// holding the whole entry in memory.
func (ua *Unarchiver) ExtractEntry(source, name, destination string) error {
	archiveFile, err := os.Open(source)
	if err != nil {
		return errs.Wrap(err, "Could not open archive %s", source)
	}
	defer archiveFile.Close()

	found := false
	err = ua.Extract(context.Background(), archiveFile, func(_ context.Context, file archives.FileInfo) error {
		if file.IsDir() || file.NameInArchive != name {
			return nil
		}

		f, err := file.Open()
		if err != nil {
			return err
		}
		defer f.Close()

		if err := writeNewFile(destination, f, file.Mode()); err != nil {
			return err
		}

		found = true
		return fs.SkipAll // entry written, stop the walk
	})
	if err != nil && !errors.Is(err, fs.SkipAll) {
		return errs.Wrap(err, "Unable to extract %s from %s", name, source)
	}
	if !found {
		return errs.New("Archive %s has no entry named %s", source, name)
	}

	return nil
}

func writeNewFile(fpath string, in io.Reader, fm os.FileMode) error {
	err := os.MkdirAll(filepath.Dir(fpath), 0755)
	if err != nil {
		return fmt.Errorf("%s: making directory for file: %v", fpath, err)
	}

	out, err := os.Create(fpath)
	if err != nil {
		return fmt.Errorf("%s: creating new file: %v", fpath, err)
	}
	defer out.Close()

	err = out.Chmod(fm)
	if err != nil && runtime.GOOS != "windows" {
		return fmt.Errorf("%s: changing file mode: %v", fpath, err)
	}

	_, err = io.Copy(out, in)
	if err != nil {
		return fmt.Errorf("%s: writing file: %v", fpath, err)
	}
	return nil
}
