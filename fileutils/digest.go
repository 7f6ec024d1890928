package fileutils

import (
	"errors"
	"io"
	"os"

	"github.com/cespare/xxhash"
)

// Digest returns the xxhash of the reader's full contents. The reader is
// not closed.
func Digest(r io.Reader) (uint64, error) {
	hash := xxhash.New()
	if _, err := io.Copy(hash, r); err != nil {
		return 0, err
	}
	return hash.Sum64(), nil
}

// FileDigest returns the xxhash of the file at path. Archive digests are
// recorded at backup time and checked again after download.
func FileDigest(path string) (uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}

	var digest uint64
	digest, err = Digest(file)

	closeErr := file.Close()
	return digest, errors.Join(err, closeErr)
}
