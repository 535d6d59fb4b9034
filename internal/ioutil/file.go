package ioutil

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// OpenInput opens path for reading and verifies it is a regular,
// seekable file, mirroring lziprecover's open_instream.
func OpenInput(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "can't open input file %q", path)
	}
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		f.Close()
		return nil, 0, errors.Errorf("input file %q is not a regular file", path)
	}
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, 0, errors.Wrapf(err, "file %q is not seekable", path)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, 0, errors.Wrapf(err, "seek error in input file %q", path)
	}
	return f, size, nil
}

// CreateOutput creates path for read-write access, mirroring
// lziprecover's open_outstream: it refuses to overwrite an existing file
// unless force is set.
func CreateOutput(path string, force bool) (*os.File, error) {
	flags := os.O_CREATE | os.O_RDWR
	if force {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.Errorf("output file %q already exists; use --force to overwrite it", path)
		}
		return nil, errors.Wrapf(err, "can't create output file %q", path)
	}
	return f, nil
}
