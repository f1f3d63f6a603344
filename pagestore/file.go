package pagestore

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// FilePageStore memory-maps a single on-disk file and exposes it as a
// sequence of fixed-size pages. It grows the mapping geometrically so
// that most writes do not need to extend the file, mirroring the
// teacher's extendMmap/extendFile doubling strategy.
type FilePageStore struct {
	path string
	fd   int

	fileSize int      // bytes actually backed by the file
	total    int       // bytes currently mapped (can exceed fileSize)
	chunks   [][]byte // one or more mmap regions, concatenated logically
}

// OpenFile opens or creates the database file at path and maps it.
func OpenFile(path string) (*FilePageStore, error) {
	fd, err := createFileSync(path)
	if err != nil {
		return nil, err
	}
	fs := &FilePageStore{path: path, fd: fd}

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("fstat: %w", err)
	}
	fs.fileSize = int(st.Size)

	if fs.fileSize > 0 {
		mapSize := 64 << 20
		for mapSize < fs.fileSize {
			mapSize *= 2
		}
		chunk, err := unix.Mmap(fd, 0, mapSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("mmap: %w", err)
		}
		fs.total = mapSize
		fs.chunks = [][]byte{chunk}
	}

	return fs, nil
}

// createFileSync opens/creates the file and fsyncs its parent directory
// so the directory entry survives a crash, matching the teacher's
// createFileSync (NayanaChandrika99-DocReasoner/tree_db/pkg/storage/kv.go).
func createFileSync(path string) (int, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0o644)
	if err != nil {
		return -1, fmt.Errorf("open file: %w", err)
	}
	dir := filepath.Dir(path)
	dirfd, err := unix.Open(dir, unix.O_RDONLY, 0)
	if err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("open directory: %w", err)
	}
	defer unix.Close(dirfd)
	if err := unix.Fsync(dirfd); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("fsync directory: %w", err)
	}
	return fd, nil
}

func (fs *FilePageStore) Size() int { return fs.fileSize }

func (fs *FilePageStore) Page(ptr uint64) []byte {
	offset := int(ptr) * PageSize
	start := 0
	for _, chunk := range fs.chunks {
		end := start + len(chunk)
		if offset < end {
			rel := offset - start
			return chunk[rel : rel+PageSize]
		}
		start = end
	}
	panic(fmt.Sprintf("pagestore: page %d out of mapped range (mapped %d bytes)", ptr, fs.total))
}

func (fs *FilePageStore) Extend(npages int) error {
	need := npages * PageSize
	if err := fs.extendFile(need); err != nil {
		return err
	}
	return fs.extendMmap(need)
}

func (fs *FilePageStore) extendFile(size int) error {
	if fs.fileSize >= size {
		return nil
	}
	newSize := fs.fileSize
	if newSize == 0 {
		newSize = PageSize
	}
	for newSize < size {
		inc := newSize / 8
		if inc < PageSize {
			inc = PageSize
		}
		newSize += inc
	}
	if err := unix.Fallocate(fs.fd, 0, 0, int64(newSize)); err != nil {
		return fmt.Errorf("fallocate: %w", err)
	}
	fs.fileSize = newSize
	return nil
}

func (fs *FilePageStore) extendMmap(size int) error {
	if size <= fs.total {
		return nil
	}
	alloc := fs.total
	if alloc < 64<<20 {
		alloc = 64 << 20
	}
	for fs.total+alloc < size {
		alloc *= 2
	}
	chunk, err := unix.Mmap(fs.fd, int64(fs.total), alloc, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("mmap: %w", err)
	}
	fs.total += alloc
	fs.chunks = append(fs.chunks, chunk)
	return nil
}

func (fs *FilePageStore) Sync() error {
	if err := unix.Fsync(fs.fd); err != nil {
		return fmt.Errorf("fsync: %w", err)
	}
	return nil
}

func (fs *FilePageStore) Close() error {
	for _, chunk := range fs.chunks {
		if err := unix.Munmap(chunk); err != nil {
			return err
		}
	}
	return unix.Close(fs.fd)
}

var _ PageStore = (*FilePageStore)(nil)
