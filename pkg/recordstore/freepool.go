package recordstore

import "slices"

// freeArea describes a reclaimable hole in the file: a region whose total
// byte length (record header + key + capacity*elemSize) equals size.
type freeArea struct {
	off  uint32
	size uint32
}

// putFreeArea donates a region to the free pool.
//
// The pool is kept sorted by size ascending; a new entry goes before the
// first strictly larger one, so equal sizes stay in donation order. When
// the pool is full the donation is dropped and the space leaks in the
// file; correctness is unaffected.
func (s *Store) putFreeArea(off, size uint32) {
	if uint32(len(s.freePool)) >= s.freePoolLength {
		s.droppedFreeAreas++

		return
	}

	idx := len(s.freePool)

	for i, area := range s.freePool {
		if area.size > size {
			idx = i

			break
		}
	}

	s.freePool = slices.Insert(s.freePool, idx, freeArea{off: off, size: size})
}

// getFreeArea removes and returns the offset of the smallest hole that can
// hold requisite bytes, or nullOffset if none fits. Holes are consumed
// whole and never split; the new record's capacity still comes from its
// element count, so bytes between the record's end and the hole's end are
// neither used nor tracked.
func (s *Store) getFreeArea(requisite uint32) uint32 {
	for i, area := range s.freePool {
		if area.size >= requisite {
			s.freePool = slices.Delete(s.freePool, i, i+1)

			return area.off
		}
	}

	return nullOffset
}
