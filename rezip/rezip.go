// Package rezip repacks extracted RAR content into zip archives using the
// universal Deflate compression method, so it can be opened without unrar.
package rezip

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Defacto2/helper"
)

const createUnique = os.O_RDWR | os.O_CREATE | os.O_EXCL

var ErrEmpty = errors.New("rezip found no files to compress")

// Compress compresses the named file into the dest zip file using the
// Deflate method. The total number of bytes read from the file is returned.
//
// The dest must be a valid file path and should include the .zip extension.
// If the dest file already exists, an error is returned.
func Compress(name, dest string) (int64, error) {
	zipfile, err := os.OpenFile(dest, createUnique, helper.WriteWriteRead)
	if err != nil {
		return 0, fmt.Errorf("rezip compress failed to open file: %w", err)
	}
	defer zipfile.Close()

	deflater := zip.NewWriter(zipfile)
	n, err := add(deflater, name, filepath.Base(name))
	if err != nil {
		_ = deflater.Close()
		return 0, fmt.Errorf("rezip compress: %w", err)
	}
	if err := deflater.Close(); err != nil {
		return 0, fmt.Errorf("rezip compress failed to close zip: %w", err)
	}
	return n, nil
}

// CompressDir compresses the files within the root directory into the dest zip file
// using the Deflate method. The names stored in the zip file are relative to root and
// always use forward slashes. The total number of bytes read from the files is returned.
//
// The dest must not exist and must not be inside of root. A root without any files
// returns [ErrEmpty] and no dest file is kept. The walk stops when ctx is done.
func CompressDir(ctx context.Context, root, dest string) (int64, error) {
	zipfile, err := os.OpenFile(dest, createUnique, helper.WriteWriteRead)
	if err != nil {
		return 0, fmt.Errorf("rezip compress dir failed to open file: %w", err)
	}
	deflater := zip.NewWriter(zipfile)

	var written, files int64
	walk := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		n, err := add(deflater, path, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		written += n
		files++
		return nil
	}
	err = filepath.WalkDir(root, walk)
	if err == nil && files == 0 {
		err = fmt.Errorf("%w: %s", ErrEmpty, root)
	}
	if err == nil {
		err = deflater.Close()
	}
	if err == nil {
		err = zipfile.Close()
	}
	if err != nil {
		_ = zipfile.Close()
		_ = os.Remove(dest)
		return 0, fmt.Errorf("rezip compress dir: %w", err)
	}
	return written, nil
}

func add(deflater *zip.Writer, path, name string) (int64, error) {
	src, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer src.Close()
	st, err := src.Stat()
	if err != nil {
		return 0, err
	}
	hdr, err := zip.FileInfoHeader(st)
	if err != nil {
		return 0, err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate
	dst, err := deflater.CreateHeader(hdr)
	if err != nil {
		return 0, err
	}
	const size = 64 * 1024
	buf := make([]byte, size)
	return io.CopyBuffer(dst, src, buf)
}
