package recordstore

import "encoding/binary"

// File format constants.
//
// A store file is a header followed by records:
//
//	header:
//	  bucketLength   uint32
//	  bucket[B]      uint32 each (file offset of chain head, 0 = empty)
//	  freePoolLength uint32
//	  freeSlots[2F]  uint32 each ((offset, size) pairs, zero-terminated)
//	record at offset O:
//	  next     uint32 (offset of next record in chain, 0 = end)
//	  keyLen   uint32
//	  key      keyLen bytes
//	  capacity uint32 (allocated element slots)
//	  count    uint32 (live element slots, count <= capacity)
//	  value    capacity * elemSize bytes (slots past count zeroed at alloc)
//
// All integers are little-endian uint32. Offset 0 always lands inside the
// header, so it doubles as the null sentinel for chain and bucket links.
const (
	// nullOffset marks an empty bucket, the end of a chain, and a free
	// pool slot past the last live entry.
	nullOffset = 0

	// initialCapacity is the smallest value capacity ever allocated, in
	// elements. Capacities are initialCapacity * 2^k.
	initialCapacity = 1024

	// recOffNext, recOffKeyLen: fixed fields before the key bytes.
	recOffNext   = 0
	recOffKeyLen = 4

	// recKeyStart is where the key bytes begin inside a record.
	recKeyStart = 8

	// recFixedSize is the total size of the four fixed uint32 fields.
	recFixedSize = 16
)

// capacityFor returns the smallest initialCapacity * 2^k >= count.
func capacityFor(count uint32) uint32 {
	capacity := uint32(initialCapacity)
	for capacity < count {
		capacity *= 2
	}

	return capacity
}

// recordSize returns the total on-file byte length of a record with the
// given key length and element capacity.
func recordSize(keyLen, capacity, elemSize uint32) uint32 {
	return recFixedSize + keyLen + capacity*elemSize
}

// bucketIndex hashes key into the bucket array. Multiplicative hash with
// wrapping 32-bit arithmetic; both constants are part of the file format.
func bucketIndex(key []byte, bucketLength uint32) uint32 {
	hash := uint32(751)
	for _, b := range key {
		hash = hash*37 + uint32(b)
	}

	return hash % bucketLength
}

// headerSize returns the byte length of the file header for the given
// bucket and free pool lengths.
func headerSize(bucketLength, freePoolLength uint32) int64 {
	return 8 + int64(bucketLength)*4 + int64(freePoolLength)*8
}

func putU32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

func getU32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}
