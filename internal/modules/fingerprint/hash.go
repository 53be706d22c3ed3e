package fingerprint

import (
	"strconv"
	"unicode/utf16"
)

// Prefix marks every non-empty fingerprint.
const Prefix = "fp_"

// rollingHash is the 31-multiplier string hash over UTF-16 code units with
// 32-bit signed wraparound. Stored fingerprints depend on its exact output.
func rollingHash(s string) int32 {
	var h int32
	for _, cu := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(cu)
	}
	return h
}

func encode(h int32) string {
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return Prefix + strconv.FormatInt(v, 36)
}
