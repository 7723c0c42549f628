package recordstore

import (
	"bytes"
	"fmt"
	"os"
)

// Options configure creating a store file.
type Options struct {
	// Path is the filesystem path of the store file.
	//
	// Required. Create truncates an existing file at this path.
	Path string

	// BucketLength is the number of hash buckets. Fixed at creation and
	// recorded in the file header. Must be >= 1.
	BucketLength uint32

	// FreePoolLength is the maximum number of reclaimable holes tracked.
	// Fixed at creation and recorded in the file header. Must be >= 1.
	FreePoolLength uint32

	// ElemSize is the width in bytes of one value element. Value lengths
	// are stored on disk as element counts. Must be >= 1.
	//
	// ElemSize is a property of the caller, not the file: the header does
	// not record it, and Open must be given the same width the file was
	// written with.
	ElemSize uint32
}

// Store is a single-file hash-chained key/value store.
//
// A Store is not safe for concurrent use. The bucket array and free pool
// live in memory and reach the file header only on Close.
type Store struct {
	f        *os.File
	elemSize uint32

	bucketLength   uint32
	bucket         []uint32 // chain head offsets, nullOffset = empty
	freePoolLength uint32
	freePool       []freeArea // sorted by size ascending

	droppedFreeAreas uint64
	closed           bool
}

// Stats is a point-in-time snapshot of store bookkeeping.
type Stats struct {
	BucketLength     uint32
	FreePoolLength   uint32
	FreeAreas        int    // holes currently tracked
	DroppedFreeAreas uint64 // donations dropped because the pool was full
	FileSize         int64
}

// recordLoc is the result of a chain walk for one key.
//
// off is the offset of the matching record, or nullOffset when the key is
// absent. prev is the record preceding off in its chain (the chain tail on
// a miss), or nullOffset when off is the chain head. next is the matching
// record's next link.
type recordLoc struct {
	prev   uint32
	off    uint32
	next   uint32
	keyLen uint32
}

// Create creates the store file at opts.Path, truncating any existing
// file, and writes an empty header. The returned store is open for use.
func Create(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("path is required: %w", ErrInvalidInput)
	}

	if opts.BucketLength == 0 {
		return nil, fmt.Errorf("bucket_length must be >= 1: %w", ErrInvalidInput)
	}

	if opts.FreePoolLength == 0 {
		return nil, fmt.Errorf("free_pool_length must be >= 1: %w", ErrInvalidInput)
	}

	if opts.ElemSize == 0 {
		return nil, fmt.Errorf("elem_size must be >= 1: %w", ErrInvalidInput)
	}

	f, err := os.OpenFile(opts.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create store file: %w", err)
	}

	s := &Store{
		f:              f,
		elemSize:       opts.ElemSize,
		bucketLength:   opts.BucketLength,
		bucket:         make([]uint32, opts.BucketLength),
		freePoolLength: opts.FreePoolLength,
	}

	err = s.saveMetaData()
	if err != nil {
		_ = f.Close()

		return nil, err
	}

	return s, nil
}

// Open opens an existing store file and loads its header. The bucket and
// free pool lengths come from the file; elemSize must match the width the
// file was created with.
func Open(path string, elemSize uint32) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required: %w", ErrInvalidInput)
	}

	if elemSize == 0 {
		return nil, fmt.Errorf("elem_size must be >= 1: %w", ErrInvalidInput)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open store file: %w", err)
	}

	s := &Store{f: f, elemSize: elemSize}

	err = s.loadMetaData()
	if err != nil {
		_ = f.Close()

		return nil, err
	}

	return s, nil
}

// Close flushes the in-memory header back to the file and closes it.
// Closing an already-closed store is a no-op.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	err := s.saveMetaData()
	if err != nil {
		_ = s.f.Close()

		return err
	}

	err = s.f.Close()
	if err != nil {
		return fmt.Errorf("close store file: %w", err)
	}

	return nil
}

// Get returns a copy of the value stored under key. The returned slice is
// owned by the caller. found is false when the key is absent; that is not
// an error.
func (s *Store) Get(key []byte) (value []byte, found bool, err error) {
	if s.closed {
		return nil, false, ErrClosed
	}

	loc, err := s.findRecord(key)
	if err != nil {
		return nil, false, err
	}

	if loc.off == nullOffset {
		return nil, false, nil
	}

	var fields [8]byte

	_, err = s.f.ReadAt(fields[:], s.capacityOff(loc))
	if err != nil {
		return nil, false, fmt.Errorf("read record fields: %w", err)
	}

	count := getU32(fields[4:8])

	value = make([]byte, count*s.elemSize)

	if len(value) > 0 {
		_, err = s.f.ReadAt(value, s.valueOff(loc))
		if err != nil {
			return nil, false, fmt.Errorf("read record value: %w", err)
		}
	}

	return value, true, nil
}

// Set upserts the value stored under key. When the new element count fits
// the record's capacity the value is overwritten in place; otherwise the
// old region is donated to the free pool and a new record is allocated.
func (s *Store) Set(key, value []byte) error {
	if s.closed {
		return ErrClosed
	}

	count, err := s.elemCount(value)
	if err != nil {
		return err
	}

	loc, err := s.findRecord(key)
	if err != nil {
		return err
	}

	if loc.off == nullOffset {
		return s.allocRecord(loc.prev, nullOffset, key, value)
	}

	var capBuf [4]byte

	_, err = s.f.ReadAt(capBuf[:], s.capacityOff(loc))
	if err != nil {
		return fmt.Errorf("read record capacity: %w", err)
	}

	capacity := getU32(capBuf[:])

	if count > capacity {
		s.putFreeArea(loc.off, recordSize(loc.keyLen, capacity, s.elemSize))

		return s.allocRecord(loc.prev, loc.next, key, value)
	}

	// In-place overwrite. Only count elements are rewritten; slots between
	// the new and old counts keep stale bytes, which Get and Append never
	// read past the count.
	buf := make([]byte, 4+len(value))
	putU32(buf, count)
	copy(buf[4:], value)

	_, err = s.f.WriteAt(buf, s.countOff(loc))
	if err != nil {
		return fmt.Errorf("write record value: %w", err)
	}

	return nil
}

// Append concatenates value onto the elements stored under key, creating
// the record if the key is absent. When the combined count exceeds the
// record's capacity, the existing elements are read back, the old region
// is donated, and a new record is allocated with the concatenation.
func (s *Store) Append(key, value []byte) error {
	if s.closed {
		return ErrClosed
	}

	addCount, err := s.elemCount(value)
	if err != nil {
		return err
	}

	loc, err := s.findRecord(key)
	if err != nil {
		return err
	}

	if loc.off == nullOffset {
		return s.allocRecord(loc.prev, nullOffset, key, value)
	}

	var fields [8]byte

	_, err = s.f.ReadAt(fields[:], s.capacityOff(loc))
	if err != nil {
		return fmt.Errorf("read record fields: %w", err)
	}

	capacity := getU32(fields[0:4])
	count := getU32(fields[4:8])
	newCount := count + addCount

	if newCount <= capacity {
		var countBuf [4]byte

		putU32(countBuf[:], newCount)

		_, err = s.f.WriteAt(countBuf[:], s.countOff(loc))
		if err != nil {
			return fmt.Errorf("write record count: %w", err)
		}

		if len(value) > 0 {
			_, err = s.f.WriteAt(value, s.valueOff(loc)+int64(count*s.elemSize))
			if err != nil {
				return fmt.Errorf("append record value: %w", err)
			}
		}

		return nil
	}

	combined := make([]byte, newCount*s.elemSize)

	_, err = s.f.ReadAt(combined[:count*s.elemSize], s.valueOff(loc))
	if err != nil {
		return fmt.Errorf("read record value: %w", err)
	}

	copy(combined[count*s.elemSize:], value)

	s.putFreeArea(loc.off, recordSize(loc.keyLen, capacity, s.elemSize))

	return s.allocRecord(loc.prev, loc.next, key, combined)
}

// Remove unlinks the record stored under key from its chain and donates
// its region to the free pool. Removing an absent key is a no-op.
func (s *Store) Remove(key []byte) error {
	if s.closed {
		return ErrClosed
	}

	loc, err := s.findRecord(key)
	if err != nil {
		return err
	}

	if loc.off == nullOffset {
		return nil
	}

	var capBuf [4]byte

	_, err = s.f.ReadAt(capBuf[:], s.capacityOff(loc))
	if err != nil {
		return fmt.Errorf("read record capacity: %w", err)
	}

	s.putFreeArea(loc.off, recordSize(loc.keyLen, getU32(capBuf[:]), s.elemSize))

	if loc.prev == nullOffset {
		s.bucket[bucketIndex(key, s.bucketLength)] = loc.next

		return nil
	}

	var nextBuf [4]byte

	putU32(nextBuf[:], loc.next)

	_, err = s.f.WriteAt(nextBuf[:], int64(loc.prev)+recOffNext)
	if err != nil {
		return fmt.Errorf("unlink record: %w", err)
	}

	return nil
}

// Contains reports whether a record with this key exists.
func (s *Store) Contains(key []byte) (bool, error) {
	if s.closed {
		return false, ErrClosed
	}

	loc, err := s.findRecord(key)
	if err != nil {
		return false, err
	}

	return loc.off != nullOffset, nil
}

// Stats returns a snapshot of store bookkeeping.
func (s *Store) Stats() (Stats, error) {
	if s.closed {
		return Stats{}, ErrClosed
	}

	info, err := s.f.Stat()
	if err != nil {
		return Stats{}, fmt.Errorf("stat store file: %w", err)
	}

	return Stats{
		BucketLength:     s.bucketLength,
		FreePoolLength:   s.freePoolLength,
		FreeAreas:        len(s.freePool),
		DroppedFreeAreas: s.droppedFreeAreas,
		FileSize:         info.Size(),
	}, nil
}

// elemCount validates that value is a whole number of elements and returns
// the element count.
func (s *Store) elemCount(value []byte) (uint32, error) {
	if uint32(len(value))%s.elemSize != 0 {
		return 0, fmt.Errorf("value length %d is not a multiple of element size %d: %w",
			len(value), s.elemSize, ErrInvalidInput)
	}

	return uint32(len(value)) / s.elemSize, nil
}

// capacityOff returns the absolute file offset of a located record's
// capacity field. The count field follows at +4, the value region at +8.
func (s *Store) capacityOff(loc recordLoc) int64 {
	return int64(loc.off) + recKeyStart + int64(loc.keyLen)
}

func (s *Store) countOff(loc recordLoc) int64 {
	return s.capacityOff(loc) + 4
}

func (s *Store) valueOff(loc recordLoc) int64 {
	return s.capacityOff(loc) + 8
}

// findRecord walks the bucket chain for key.
//
// On a hit, loc.off is the record offset and loc.prev/loc.next are the
// surrounding links, ready for chain patching. On a miss, loc.off is
// nullOffset and loc.prev is the chain tail (or nullOffset for an empty
// bucket), which is exactly where a new record must be linked.
func (s *Store) findRecord(key []byte) (recordLoc, error) {
	var loc recordLoc

	loc.off = s.bucket[bucketIndex(key, s.bucketLength)]

	var hdr [8]byte

	for loc.off != nullOffset {
		_, err := s.f.ReadAt(hdr[:], int64(loc.off))
		if err != nil {
			return recordLoc{}, fmt.Errorf("read record header: %w", err)
		}

		loc.next = getU32(hdr[0:4])
		keyLen := getU32(hdr[4:8])

		if keyLen == uint32(len(key)) {
			stored := make([]byte, keyLen)

			_, err = s.f.ReadAt(stored, int64(loc.off)+recKeyStart)
			if err != nil {
				return recordLoc{}, fmt.Errorf("read record key: %w", err)
			}

			if bytes.Equal(stored, key) {
				loc.keyLen = keyLen

				return loc, nil
			}
		}

		loc.prev = loc.off
		loc.off = loc.next
	}

	return loc, nil
}

// allocRecord writes a new record for key and links it into its chain.
//
// next becomes the new record's next link: nullOffset for a fresh tail
// append, or the replaced record's old next when a grown record takes over
// its chain position. prev is patched to point at the new record; when
// prev is nullOffset the bucket slot itself is updated.
func (s *Store) allocRecord(prev, next uint32, key, value []byte) error {
	count := uint32(len(value)) / s.elemSize
	capacity := capacityFor(count)
	keyLen := uint32(len(key))
	requisite := recordSize(keyLen, capacity, s.elemSize)

	newOff := s.getFreeArea(requisite)
	if newOff == nullOffset {
		info, err := s.f.Stat()
		if err != nil {
			return fmt.Errorf("stat store file: %w", err)
		}

		newOff = uint32(info.Size())
	}

	// Slots past count are zero-filled by the fresh buffer.
	rec := make([]byte, requisite)
	putU32(rec[recOffNext:], next)
	putU32(rec[recOffKeyLen:], keyLen)
	copy(rec[recKeyStart:], key)
	putU32(rec[recKeyStart+keyLen:], capacity)
	putU32(rec[recKeyStart+keyLen+4:], count)
	copy(rec[recKeyStart+keyLen+8:], value)

	_, err := s.f.WriteAt(rec, int64(newOff))
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	if prev == nullOffset {
		s.bucket[bucketIndex(key, s.bucketLength)] = newOff

		return nil
	}

	var nextBuf [4]byte

	putU32(nextBuf[:], newOff)

	_, err = s.f.WriteAt(nextBuf[:], int64(prev)+recOffNext)
	if err != nil {
		return fmt.Errorf("link record: %w", err)
	}

	return nil
}

// saveMetaData serializes the bucket array and free pool into the file
// header. Unused free pool slots are zeroed; the first zero offset acts as
// the terminator loadMetaData stops at.
func (s *Store) saveMetaData() error {
	buf := make([]byte, headerSize(s.bucketLength, s.freePoolLength))

	putU32(buf, s.bucketLength)

	pos := 4
	for _, off := range s.bucket {
		putU32(buf[pos:], off)
		pos += 4
	}

	putU32(buf[pos:], s.freePoolLength)
	pos += 4

	for _, area := range s.freePool {
		putU32(buf[pos:], area.off)
		putU32(buf[pos+4:], area.size)
		pos += 8
	}

	_, err := s.f.WriteAt(buf, 0)
	if err != nil {
		return fmt.Errorf("write store header: %w", err)
	}

	return nil
}

// loadMetaData reads the header written by saveMetaData.
func (s *Store) loadMetaData() error {
	var lenBuf [4]byte

	_, err := s.f.ReadAt(lenBuf[:], 0)
	if err != nil {
		return fmt.Errorf("read bucket length: %w", err)
	}

	s.bucketLength = getU32(lenBuf[:])
	if s.bucketLength == 0 {
		return fmt.Errorf("bucket length is 0: %w", ErrCorrupt)
	}

	bucketBuf := make([]byte, int64(s.bucketLength)*4)

	_, err = s.f.ReadAt(bucketBuf, 4)
	if err != nil {
		return fmt.Errorf("read bucket array: %w", err)
	}

	s.bucket = make([]uint32, s.bucketLength)
	for i := range s.bucket {
		s.bucket[i] = getU32(bucketBuf[i*4:])
	}

	_, err = s.f.ReadAt(lenBuf[:], 4+int64(s.bucketLength)*4)
	if err != nil {
		return fmt.Errorf("read free pool length: %w", err)
	}

	s.freePoolLength = getU32(lenBuf[:])

	poolBuf := make([]byte, int64(s.freePoolLength)*8)

	_, err = s.f.ReadAt(poolBuf, 8+int64(s.bucketLength)*4)
	if err != nil {
		return fmt.Errorf("read free pool: %w", err)
	}

	s.freePool = nil

	for pos := 0; pos < len(poolBuf); pos += 8 {
		off := getU32(poolBuf[pos:])
		if off == nullOffset {
			break
		}

		s.freePool = append(s.freePool, freeArea{off: off, size: getU32(poolBuf[pos+4:])})
	}

	return nil
}
