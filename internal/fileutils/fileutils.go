package fileutils

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pakprep/cli/internal/errs"
)

// FileMode is the mode used for created files
const FileMode = 0644

// DirMode is the mode used for created dirs
const DirMode = os.ModePerm

// TargetExists checks if the given file or folder exists
func TargetExists(path string) bool {
	_, err1 := os.Stat(path)
	_, err2 := os.Readlink(path) // os.Stat returns false on Symlinks that don't point to a valid file
	return err1 == nil || err2 == nil
}

// FileExists checks if the given file (not folder) exists
func FileExists(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}

	mode := fi.Mode()
	return mode.IsRegular()
}

// DirExists checks if the given directory exists
func DirExists(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}

	mode := fi.Mode()
	return mode.IsDir()
}

// Mkdir is a small helper function to create a directory if it doesnt already exist
func Mkdir(path string, subpath ...string) error {
	if len(subpath) > 0 {
		subpathStr := filepath.Join(subpath...)
		path = filepath.Join(path, subpathStr)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		err = os.MkdirAll(path, DirMode)
		if err != nil {
			return errs.Wrap(err, "MkdirAll failed for path: %s", path)
		}
	}
	return nil
}

// MkdirUnlessExists will make the directory structure if it doesn't already exists
func MkdirUnlessExists(path string) error {
	if DirExists(path) {
		return nil
	}
	return Mkdir(path)
}

// CopyFile copies a file from one location to another
func CopyFile(src, target string) error {
	in, err := os.Open(src)
	if err != nil {
		return errs.Wrap(err, "os.Open %s failed", src)
	}
	defer in.Close()

	// Create target directory if it doesn't exist
	dir := filepath.Dir(target)
	err = MkdirUnlessExists(dir)
	if err != nil {
		return err
	}

	// Create target file
	out, err := os.Create(target)
	if err != nil {
		return errs.Wrap(err, "os.Create %s failed", target)
	}
	defer out.Close()

	// Copy bytes to target file
	_, err = io.Copy(out, in)
	if err != nil {
		return errs.Wrap(err, "io.Copy failed for %s -> %s", src, target)
	}
	err = out.Close()
	if err != nil {
		return errs.Wrap(err, "out.Close failed for %s", target)
	}
	return nil
}

// CopyFilePreserve copies a file like CopyFile but also carries over the source's
// permission bits and timestamps
func CopyFilePreserve(src, target string) error {
	stat, err := os.Stat(src)
	if err != nil {
		return errs.Wrap(err, "os.Stat %s failed", src)
	}

	if err := CopyFile(src, target); err != nil {
		return err
	}

	if err := os.Chmod(target, stat.Mode().Perm()); err != nil {
		return errs.Wrap(err, "os.Chmod %s failed", target)
	}
	if err := os.Chtimes(target, stat.ModTime(), stat.ModTime()); err != nil {
		return errs.Wrap(err, "os.Chtimes %s failed", target)
	}
	return nil
}

// ReadFile reads the content of a file
func ReadFile(filePath string) ([]byte, error) {
	b, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errs.Wrap(err, "os.ReadFile %s failed", filePath)
	}
	return b, nil
}

// WriteFile writes data to a file, if it exists it is overwritten, if it doesn't exist it is created and data is written
func WriteFile(filePath string, data []byte) error {
	err := MkdirUnlessExists(filepath.Dir(filePath))
	if err != nil {
		return err
	}

	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FileMode)
	if err != nil {
		return errs.Wrap(err, "os.OpenFile %s failed", filePath)
	}
	defer f.Close()

	_, err = f.Write(data)
	if err != nil {
		return errs.Wrap(err, "f.Write %s failed", filePath)
	}
	return nil
}
