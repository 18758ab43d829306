package umi

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Extract returns the UMI of a read pair: the window [start,
// start+length) of seq1, the separator, and the same window of seq2.
// It returns an errors.Invalid error if the window does not fit in
// either sequence; UMIs are never silently truncated.
func Extract(seq1, seq2 string, start, length int, sep byte) (string, error) {
	if start < 0 || length < 0 {
		return "", errors.E(errors.Invalid, fmt.Sprintf("umi window [%d,+%d) is negative", start, length))
	}
	end := start + length
	if len(seq1) < end || len(seq2) < end {
		return "", errors.E(errors.Invalid,
			fmt.Sprintf("umi window [%d,%d) exceeds read lengths %d, %d", start, end, len(seq1), len(seq2)))
	}
	b := make([]byte, 0, 2*length+1)
	b = append(b, seq1[start:end]...)
	b = append(b, sep)
	b = append(b, seq2[start:end]...)
	return string(b), nil
}

// Split splits a UMI produced by Extract back into its two halves. Both
// halves have the same length; the middle byte is the separator.
func Split(umi string) (string, string, bool) {
	if len(umi)%2 == 0 {
		return "", "", false
	}
	n := len(umi) / 2
	return umi[:n], umi[n+1:], true
}

// Join is the inverse of Split.
func Join(u1, u2 string, sep byte) string {
	return u1 + string(sep) + u2
}
