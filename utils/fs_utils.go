package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// CopyFile copies a file from a source path to a destination path, creating the destination directory if needed. The
// copy is written to a temporary sibling first and renamed into place, so readers never observe a partial file.
// File permissions are retained.
func CopyFile(sourcePath string, targetPath string) error {
	sourceInfo, err := os.Stat(sourcePath)
	if err != nil {
		return errors.WithStack(err)
	}

	if sourceInfo.IsDir() {
		return fmt.Errorf("could not copy file from '%s' to '%s' because the source path refers to a directory", sourcePath, targetPath)
	}

	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer sourceFile.Close()

	return WriteFileAtomic(targetPath, sourceInfo.Mode().Perm(), func(w io.Writer) error {
		_, err := io.Copy(w, sourceFile)
		return err
	})
}

// WriteFileAtomic creates targetPath by streaming the output of write into a temporary file in the same directory and
// renaming it into place once write succeeds. The target directory is created if it does not exist.
func WriteFileAtomic(targetPath string, perm os.FileMode, write func(w io.Writer) error) error {
	targetDirectory := filepath.Dir(targetPath)
	if err := MakeDirectory(targetDirectory); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(targetDirectory, "."+filepath.Base(targetPath)+".*")
	if err != nil {
		return errors.WithStack(err)
	}
	tmpPath := tmp.Name()

	// Make sure the temporary file never outlives a failed write
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if err = write(tmp); err != nil {
		tmp.Close()
		return errors.WithStack(err)
	}
	if err = tmp.Close(); err != nil {
		return errors.WithStack(err)
	}
	if err = os.Chmod(tmpPath, perm); err != nil {
		return errors.WithStack(err)
	}
	if err = os.Rename(tmpPath, targetPath); err != nil {
		return errors.WithStack(err)
	}
	committed = true
	return nil
}

// MakeDirectory creates a directory at the given path, including any parent directories which do not exist.
// Returns an error, if one occurred.
func MakeDirectory(dirToMake string) error {
	dirInfo, err := os.Stat(dirToMake)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.WithStack(os.MkdirAll(dirToMake, 0755))
		}
		return errors.WithStack(err)
	}

	if !dirInfo.IsDir() {
		return fmt.Errorf("there is a file with the same name as the directory %s", dirToMake)
	}
	return nil
}

// CopyDirectory copies a directory from a source path to a destination path. If recursively, all subdirectories will be
// copied. If not, only files within the directory will be copied. Returns an error if one occurs.
func CopyDirectory(sourcePath string, targetPath string, recursively bool) error {
	sourceInfo, err := os.Stat(sourcePath)
	if err != nil {
		return errors.WithStack(err)
	}

	if !sourceInfo.IsDir() {
		return fmt.Errorf("could not copy directory from '%s' to '%s' because the source path does not refer to a valid directory", sourcePath, targetPath)
	}

	if err = os.MkdirAll(targetPath, sourceInfo.Mode().Perm()|0700); err != nil {
		return errors.WithStack(err)
	}

	dirEntries, err := os.ReadDir(sourcePath)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, dirEntry := range dirEntries {
		entSourcePath := filepath.Join(sourcePath, dirEntry.Name())
		entTargetPath := filepath.Join(targetPath, dirEntry.Name())

		if dirEntry.IsDir() {
			if !recursively {
				continue
			}
			if err = CopyDirectory(entSourcePath, entTargetPath, recursively); err != nil {
				return err
			}
			continue
		}

		if err = CopyFile(entSourcePath, entTargetPath); err != nil {
			return err
		}
	}
	return nil
}

// DeleteDirectory deletes a directory at the provided path. A missing directory is not an error.
func DeleteDirectory(directoryPath string) error {
	dirInfo, err := os.Stat(directoryPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.WithStack(err)
	}

	if !dirInfo.IsDir() {
		return fmt.Errorf("cannot delete directory as the provided path refers to a file")
	}

	return errors.WithStack(os.RemoveAll(directoryPath))
}

// MoveDirectoryContents moves every top-level entry of sourcePath into targetPath, replacing entries of the same name.
// When targetPath does not exist the source directory is renamed into place as a whole.
func MoveDirectoryContents(sourcePath string, targetPath string) error {
	if _, err := os.Stat(targetPath); os.IsNotExist(err) {
		return errors.WithStack(os.Rename(sourcePath, targetPath))
	} else if err != nil {
		return errors.WithStack(err)
	}

	dirEntries, err := os.ReadDir(sourcePath)
	if err != nil {
		return errors.WithStack(err)
	}
	for _, dirEntry := range dirEntries {
		entTargetPath := filepath.Join(targetPath, dirEntry.Name())
		// Directories cannot be renamed over a non-empty target
		if dirEntry.IsDir() {
			if err = os.RemoveAll(entTargetPath); err != nil {
				return errors.WithStack(err)
			}
		}
		if err = os.Rename(filepath.Join(sourcePath, dirEntry.Name()), entTargetPath); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
