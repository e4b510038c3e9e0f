// Package radix50 implements the three-character-per-16-bit-word encoding
// used throughout RT-11 for filenames, extensions and the system version
// field of the home block.
package radix50

import (
	"strings"

	"rt11img/rt11err"
)

// alphabet is the 40-symbol radix-50 character set, indexed 0..39.
const alphabet = " ABCDEFGHIJKLMNOPQRSTUVWXYZ$.?0123456789"

const radix = 40

func charIndex(c byte) (int, bool) {
	i := strings.IndexByte(alphabet, c)
	if i < 0 {
		return 0, false
	}
	return i, true
}

// EncodeWord packs up to 3 characters (space-padded if fewer) into a single
// radix-50 word. Every character must be in the alphabet or a NameInvalid
// error is returned.
func EncodeWord(s string) (uint16, error) {
	if len(s) > 3 {
		return 0, rt11err.Newf(rt11err.NameInvalid, "radix50: %q is longer than 3 characters", s)
	}
	padded := (s + "   ")[:3]

	var indices [3]int
	for i := 0; i < 3; i++ {
		idx, ok := charIndex(padded[i])
		if !ok {
			return 0, rt11err.Newf(rt11err.NameInvalid, "radix50: character %q not in radix-50 alphabet", padded[i]).WithName(s)
		}
		indices[i] = idx
	}

	w := ((indices[0]*radix)+indices[1])*radix + indices[2]
	return uint16(w), nil
}

// DecodeWord unpacks a radix-50 word into 3 characters. A word whose value
// is out of the representable range (>= 40*40*40) cannot legitimately occur
// on disk; per spec this is decoded to "?" characters and reported as
// Corruption rather than panicking.
func DecodeWord(w uint16) (string, error) {
	v := int(w)
	if v >= radix*radix*radix {
		return "???", rt11err.Newf(rt11err.Corruption, "radix50: word 0x%04X out of range", w).WithInvariant(0)
	}

	c2 := v % radix
	v /= radix
	c1 := v % radix
	v /= radix
	c0 := v

	return string([]byte{alphabet[c0], alphabet[c1], alphabet[c2]}), nil
}

// Encode packs an arbitrary-length string (used for multi-word fields like
// a 6-character filename, which spans two words) into a slice of radix-50
// words, 3 characters per word, space-padding the final word as needed.
func Encode(s string) ([]uint16, error) {
	words := make([]uint16, 0, (len(s)+2)/3)
	for i := 0; i < len(s); i += 3 {
		end := i + 3
		if end > len(s) {
			end = len(s)
		}
		w, err := EncodeWord(s[i:end])
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	if len(words) == 0 {
		w, _ := EncodeWord("")
		words = append(words, w)
	}
	return words, nil
}

// Decode unpacks a slice of radix-50 words into their concatenated string
// form, trimming trailing spaces introduced by padding.
func Decode(words []uint16) (string, error) {
	var sb strings.Builder
	var firstErr error
	for _, w := range words {
		s, err := DecodeWord(w)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		sb.WriteString(s)
	}
	return strings.TrimRight(sb.String(), " "), firstErr
}
