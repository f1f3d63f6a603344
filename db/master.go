package db

import (
	"bytes"
	"encoding/binary"

	"github.com/quilldb/quilldb/internal/errs"
)

// masterPageSize is the number of meaningful bytes at the front of
// page 0; the rest of the page is unused.
const masterPageSize = 48

// magic is the 16-byte signature stamped at the front of page 0 on
// first create and checked on every subsequent open.
var magic = []byte("quilldb-master-1")[:16]

type masterState struct {
	root        uint64
	pagesUsed   uint64
	freelistHead uint64
	version     uint64
}

func readMaster(page []byte) (masterState, error) {
	if !bytes.Equal(page[0:16], magic) {
		return masterState{}, errs.New(errs.Corruption, "bad master page signature")
	}
	return masterState{
		root:         binary.LittleEndian.Uint64(page[16:24]),
		pagesUsed:    binary.LittleEndian.Uint64(page[24:32]),
		freelistHead: binary.LittleEndian.Uint64(page[32:40]),
		version:      binary.LittleEndian.Uint64(page[40:48]),
	}, nil
}

func writeMaster(page []byte, m masterState) {
	copy(page[0:16], magic)
	binary.LittleEndian.PutUint64(page[16:24], m.root)
	binary.LittleEndian.PutUint64(page[24:32], m.pagesUsed)
	binary.LittleEndian.PutUint64(page[32:40], m.freelistHead)
	binary.LittleEndian.PutUint64(page[40:48], m.version)
}
