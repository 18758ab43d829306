package qc

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/pairqc/encoding/fastq"
)

// PhredOffset is the Phred+33 quality encoding offset.
const PhredOffset = 33

// AverageQuality returns the mean decoded quality of qual over the
// window w. Each byte is decoded before summing, and the mean is
// truncated toward zero. The window must satisfy CheckWindow.
func AverageQuality(qual string, w fastq.Window) int {
	sum := 0
	for i := w.Start; i < w.End(); i++ {
		sum += int(qual[i]) - PhredOffset
	}
	return sum / w.Length
}

// CheckWindow returns an errors.Invalid error unless w is a non-empty
// window inside both r.Seq and r.Qual.
func CheckWindow(r *fastq.Read, w fastq.Window) error {
	if w.Start < 0 || w.Length <= 0 || w.End() > len(r.Seq) || w.End() > len(r.Qual) {
		return errors.E(errors.Invalid,
			fmt.Sprintf("read %s: window [%d,+%d) does not fit in a read of length %d",
				r.Name(), w.Start, w.Length, len(r.Seq)))
	}
	return nil
}
