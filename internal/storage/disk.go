package storage

import (
	"os"
)

// DiskUsage returns the bytes used by the database file and its WAL side
// files.
func (s *SQLiteStorage) DiskUsage() (int64, error) {
	return fileSizes(s.path, s.path+"-wal", s.path+"-shm")
}

// fileSizes sums the sizes of paths. Missing files count as zero.
func fileSizes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
		}
	}
	return total, nil
}
