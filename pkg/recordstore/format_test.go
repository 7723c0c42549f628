package recordstore

import "testing"

func Test_CapacityFor_Returns_Smallest_Doubling_Of_Initial_Capacity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		count uint32
		want  uint32
	}{
		{count: 0, want: 1024},
		{count: 1, want: 1024},
		{count: 3, want: 1024},
		{count: 800, want: 1024},
		{count: 1024, want: 1024},
		{count: 1025, want: 2048},
		{count: 2000, want: 2048},
		{count: 2048, want: 2048},
		{count: 2049, want: 4096},
		{count: 100000, want: 131072},
	}

	for _, tt := range tests {
		got := capacityFor(tt.count)
		if got != tt.want {
			t.Errorf("capacityFor(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
}

func Test_RecordSize_Adds_Fixed_Fields_Key_And_Value_Region(t *testing.T) {
	t.Parallel()

	// 4 uint32 fields + key + capacity*elemSize.
	got := recordSize(4, 1024, 4)

	want := uint32(16 + 4 + 1024*4)
	if got != want {
		t.Fatalf("recordSize = %d, want %d", got, want)
	}
}

func Test_BucketIndex_Is_Deterministic_And_Bounded(t *testing.T) {
	t.Parallel()

	keys := [][]byte{
		[]byte("fuga"),
		[]byte("1"),
		[]byte("テ"),
		[]byte("テス"),
		{},
		{0x00, 0xFF, 0x80},
	}

	for _, key := range keys {
		first := bucketIndex(key, 100000)
		second := bucketIndex(key, 100000)

		if first != second {
			t.Errorf("bucketIndex(%q) not deterministic: %d then %d", key, first, second)
		}

		if first >= 100000 {
			t.Errorf("bucketIndex(%q) = %d, out of range", key, first)
		}

		if got := bucketIndex(key, 1); got != 0 {
			t.Errorf("bucketIndex(%q, 1) = %d, want 0", key, got)
		}
	}
}

func Test_BucketIndex_Uses_Wrapping_Arithmetic(t *testing.T) {
	t.Parallel()

	// Long high-byte keys overflow 32 bits many times over; the result
	// must still be a stable function of the wrapped value.
	key := make([]byte, 1024)
	for i := range key {
		key[i] = 0xFF
	}

	if got, want := bucketIndex(key, 97), bucketIndex(key, 97); got != want {
		t.Fatalf("wrapping hash unstable: %d != %d", got, want)
	}

	// Reference value computed with arbitrary precision reduced mod 2^32 at
	// every step; without the wrap the same key lands in bucket 64.
	if got := bucketIndex(key, 97); got != 4 {
		t.Fatalf("bucketIndex(1024 x 0xFF, 97) = %d, want 4", got)
	}
}

func Test_HeaderSize_Counts_Lengths_Buckets_And_Pool_Pairs(t *testing.T) {
	t.Parallel()

	// 2 length fields + B bucket offsets + F (offset, size) pairs.
	got := headerSize(100000, 10000)

	want := int64(8 + 100000*4 + 10000*8)
	if got != want {
		t.Fatalf("headerSize = %d, want %d", got, want)
	}
}
