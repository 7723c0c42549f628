// Package recordstore provides a single-file, hash-chained key/value store.
//
// A store maps variable-length byte keys to vectors of fixed-width elements
// (the element width is chosen when the store is created: 1 byte for blob
// payloads, 4 bytes for uint32 postings). Records live in one file behind a
// fixed-size bucket array; colliding keys are threaded into singly-linked
// chains stored inline in the file. Value regions are allocated with
// capacity doubling, and regions freed by growth or removal are recycled
// through a bounded free pool.
//
// # Basic Usage
//
//	s, err := recordstore.Create(recordstore.Options{
//	    Path:           "/tmp/data.idx",
//	    BucketLength:   100000,
//	    FreePoolLength: 10000,
//	    ElemSize:       4,
//	})
//	if err != nil {
//	    // handle error
//	}
//	defer s.Close()
//
//	err = s.Set([]byte("key"), value)
//	value, found, err := s.Get([]byte("key"))
//
// # Durability and Concurrency
//
// recordstore is a single-writer, single-goroutine store. The in-memory
// bucket array and free pool are flushed to the file header only on
// [Store.Close]; a crash in between may leak file space but leaves live
// chains intact. There is no internal locking and no crash journaling.
// Callers needing either must provide it externally.
package recordstore
