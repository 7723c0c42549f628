package ngram_test

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/bubu/pkg/ngram"
)

func Test_Tokenize_Emits_All_Adjacent_Pairs_When_Overlapping(t *testing.T) {
	t.Parallel()

	unigrams, bigrams := ngram.Tokenize([]byte("hogefuga"), true)

	wantUnigrams := []string{"h", "o", "g", "e", "f", "u", "g", "a"}
	if diff := cmp.Diff(wantUnigrams, unigrams); diff != "" {
		t.Errorf("unigrams mismatch (-want +got):\n%s", diff)
	}

	wantBigrams := []string{"ho", "og", "ge", "ef", "fu", "ug", "ga"}
	if diff := cmp.Diff(wantBigrams, bigrams); diff != "" {
		t.Errorf("bigrams mismatch (-want +got):\n%s", diff)
	}
}

func Test_Tokenize_Splits_Into_Disjoint_Pairs_When_Not_Overlapping(t *testing.T) {
	t.Parallel()

	// Odd length: the trailing character pairs with nothing.
	unigrams, bigrams := ngram.Tokenize([]byte("hogefug"), false)

	wantUnigrams := []string{"h", "o", "g", "e", "f", "u", "g"}
	if diff := cmp.Diff(wantUnigrams, unigrams); diff != "" {
		t.Errorf("unigrams mismatch (-want +got):\n%s", diff)
	}

	wantBigrams := []string{"ho", "ge", "fu"}
	if diff := cmp.Diff(wantBigrams, bigrams); diff != "" {
		t.Errorf("bigrams mismatch (-want +got):\n%s", diff)
	}
}

func Test_Tokenize_Pairs_Trailing_Characters_When_Even_Length(t *testing.T) {
	t.Parallel()

	_, bigrams := ngram.Tokenize([]byte("hoge"), false)

	want := []string{"ho", "ge"}
	if diff := cmp.Diff(want, bigrams); diff != "" {
		t.Errorf("bigrams mismatch (-want +got):\n%s", diff)
	}
}

func Test_Tokenize_Groups_Multibyte_Characters(t *testing.T) {
	t.Parallel()

	unigrams, bigrams := ngram.Tokenize([]byte("ほげふがひ"), false)

	wantUnigrams := []string{"ほ", "げ", "ふ", "が", "ひ"}
	if diff := cmp.Diff(wantUnigrams, unigrams); diff != "" {
		t.Errorf("unigrams mismatch (-want +got):\n%s", diff)
	}

	wantBigrams := []string{"ほげ", "ふが"}
	if diff := cmp.Diff(wantBigrams, bigrams); diff != "" {
		t.Errorf("bigrams mismatch (-want +got):\n%s", diff)
	}
}

func Test_Tokenize_Handles_Mixed_Width_Text(t *testing.T) {
	t.Parallel()

	unigrams, bigrams := ngram.Tokenize([]byte("aほb"), true)

	wantUnigrams := []string{"a", "ほ", "b"}
	if diff := cmp.Diff(wantUnigrams, unigrams); diff != "" {
		t.Errorf("unigrams mismatch (-want +got):\n%s", diff)
	}

	wantBigrams := []string{"aほ", "ほb"}
	if diff := cmp.Diff(wantBigrams, bigrams); diff != "" {
		t.Errorf("bigrams mismatch (-want +got):\n%s", diff)
	}
}

func Test_Tokenize_Returns_Nothing_When_Input_Empty(t *testing.T) {
	t.Parallel()

	unigrams, bigrams := ngram.Tokenize(nil, true)

	if len(unigrams) != 0 || len(bigrams) != 0 {
		t.Fatalf("unigrams=%v bigrams=%v, want none", unigrams, bigrams)
	}
}

// Continuation bytes with no lead byte attach to the first group; the
// scanner never validates, it only groups.
func Test_Tokenize_Passes_Malformed_Sequences_Through(t *testing.T) {
	t.Parallel()

	input := []byte{0x80, 0x81, 'a', 0xE3, 0x81}

	unigrams, _ := ngram.Tokenize(input, true)

	if got := strings.Join(unigrams, ""); got != string(input) {
		t.Fatalf("concatenated unigrams = %q, want %q", got, input)
	}
}

// Concatenating the unigrams reproduces the input for arbitrary bytes,
// valid UTF-8 or not.
func Test_Tokenize_Unigrams_Reconstruct_Input_When_Input_Random(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(42, 42))

	for round := 0; round < 200; round++ {
		input := make([]byte, rng.IntN(64))
		for i := range input {
			input[i] = byte(rng.IntN(256))
		}

		unigrams, bigrams := ngram.Tokenize(input, round%2 == 0)

		if got := strings.Join(unigrams, ""); got != string(input) {
			t.Fatalf("round %d: concatenated unigrams = %q, want %q", round, got, input)
		}

		if len(unigrams) == 0 && len(bigrams) != 0 {
			t.Fatalf("round %d: bigrams without unigrams", round)
		}
	}
}
