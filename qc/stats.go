package qc

import (
	"fmt"
	"io"

	"github.com/grailbio/base/tsv"
)

// Stats counts the read pairs seen by a Filter.
type Stats struct {
	// Pairs is the number of read pairs scanned.
	Pairs int64
	// Passed is the number of pairs written to the outputs.
	Passed int64
	// FailedR1, FailedR2 and FailedBoth partition the rejected pairs by
	// the mate(s) below the quality threshold.
	FailedR1, FailedR2, FailedBoth int64
	// UMICorrected is the number of passed pairs whose UMI was snapped
	// to a known UMI.
	UMICorrected int64
}

func (s *Stats) fail(pass1, pass2 bool) {
	switch {
	case !pass1 && !pass2:
		s.FailedBoth++
	case !pass1:
		s.FailedR1++
	default:
		s.FailedR2++
	}
}

// Failed returns the number of rejected pairs.
func (s Stats) Failed() int64 { return s.FailedR1 + s.FailedR2 + s.FailedBoth }

func (s Stats) String() string {
	return fmt.Sprintf("pairs: %d, passed: %d, failed: %d (r1: %d, r2: %d, both: %d), umi corrected: %d",
		s.Pairs, s.Passed, s.Failed(), s.FailedR1, s.FailedR2, s.FailedBoth, s.UMICorrected)
}

// WriteTSV writes s as a two-line TSV: a header and the counts.
func (s Stats) WriteTSV(w io.Writer) error {
	t := tsv.NewWriter(w)
	t.WriteString("pairs\tpassed\tfailed_r1\tfailed_r2\tfailed_both\tumi_corrected")
	if err := t.EndLine(); err != nil {
		return err
	}
	for _, v := range []int64{s.Pairs, s.Passed, s.FailedR1, s.FailedR2, s.FailedBoth, s.UMICorrected} {
		t.WriteInt64(v)
	}
	if err := t.EndLine(); err != nil {
		return err
	}
	return t.Flush()
}
