package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 100 * time.Millisecond

// Load reads and parses the benchmark data file at path.
func Load(path string) (*Dataset, Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", path, err)
	}

	ds, format, err := Parse(data)
	if err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", path, err)
	}

	return ds, format, nil
}

// Save writes ds to path. The data is written to a temporary file in the
// same directory and renamed over the target, so readers never observe a
// partially written file.
func Save(path string, ds *Dataset, format Format) error {
	data, err := Marshal(ds, format)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}

	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("rename to %s: %w", path, err)
	}

	return nil
}

// FormatForPath guesses the format of a file that does not exist yet from
// its extension.
func FormatForPath(path string) Format {
	if filepath.Ext(path) == ".json" {
		return FormatJSON
	}

	return FormatScript
}

// Update loads the file at path under an exclusive advisory lock, applies fn
// and saves the result. A missing file starts as an empty dataset. The lock
// lives next to the data file as "<path>.lock" so that concurrent jobs
// appending to the same history are serialized.
func Update(ctx context.Context, path string, fn func(*Dataset) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}

	lock := flock.New(path + ".lock")

	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("lock %s: not acquired", path)
	}
	defer lock.Unlock()

	ds, format, err := Load(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		ds = &Dataset{}
		format = FormatForPath(path)
	case err != nil:
		return err
	}

	if err := fn(ds); err != nil {
		return err
	}

	return Save(path, ds, format)
}
