package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LockFileName is the marker file guarding an output directory.
const LockFileName = ".cairn.lock"

// RunLock acquires a file-based lock on an output directory so concurrent
// runs cannot interleave writes into it. It blocks until the lock is
// acquired and returns the unlock function.
func RunLock(dir string) (func(), error) {
	lockPath := filepath.Join(dir, LockFileName)

	for {
		// Try to create lock file atomically
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL, 0666)
		if err == nil {
			f.Close()
			return func() {
				os.Remove(lockPath)
			}, nil
		}

		if os.IsExist(err) {
			// Lock exists, wait and retry. Simple spinlock with backoff.
			time.Sleep(10 * time.Millisecond)
			continue
		}

		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
}
