// Package fsguard provides the advisory file-lock primitive shared by
// the dataset recorder (C5) and commit logger (C8): both append to a
// JSON(L) artifact that may be written by multiple workers at once
// (spec.md §5 shared-resource table). Grounded on the single-host,
// POSIX assumption in spec.md §1 ("single-host, multi-worker"); uses
// golang.org/x/sys/unix.Flock, already pulled transitively by the
// teacher's module graph through golang.org/x/sys.
package fsguard

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// AppendLocked opens path in append mode, takes an exclusive advisory
// lock, invokes write with the open file, flushes and fsyncs before
// releasing the lock and closing. The lock is held for the duration of
// write so concurrent workers serialise their appends.
func AppendLocked(path string, write func(f *os.File) error) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if lockErr := unix.Flock(int(f.Fd()), unix.LOCK_EX); lockErr != nil {
		return fmt.Errorf("locking %s: %w", path, lockErr)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	if werr := write(f); werr != nil {
		return werr
	}
	if serr := f.Sync(); serr != nil {
		return fmt.Errorf("fsync %s: %w", path, serr)
	}
	return nil
}

// RewriteLocked exclusively locks path (opened read-write, not
// truncated until the lock is held) and replaces its content with the
// result of transform, used by the hourly dataset dedup housekeeping
// (spec.md §4.5) so a concurrent append cannot interleave with a
// rewrite.
func RewriteLocked(path string, transform func(f *os.File) ([]byte, error)) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if lockErr := unix.Flock(int(f.Fd()), unix.LOCK_EX); lockErr != nil {
		return fmt.Errorf("locking %s: %w", path, lockErr)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	newContent, err := transform(f)
	if err != nil {
		return err
	}

	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncating %s: %w", path, err)
	}
	if _, err := f.WriteAt(newContent, 0); err != nil {
		return fmt.Errorf("rewriting %s: %w", path, err)
	}
	return f.Sync()
}
