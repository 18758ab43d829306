package qc

import (
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/pairqc/encoding/fastq"
	"github.com/grailbio/testutil/expect"
)

func TestAverageQuality(t *testing.T) {
	for _, test := range []struct {
		qual string
		w    fastq.Window
		want int
	}{
		{"IIII", fastq.Window{Start: 0, Length: 4}, 40},
		{"!!!!", fastq.Window{Start: 0, Length: 4}, 0},
		{"?", fastq.Window{Start: 0, Length: 1}, 30},
		// (40+30)/2
		{"I?", fastq.Window{Start: 0, Length: 2}, 35},
		// (40+39)/2 truncates.
		{"IH", fastq.Window{Start: 0, Length: 2}, 39},
		{"!!II!!", fastq.Window{Start: 2, Length: 2}, 40},
		{"!!II!!", fastq.Window{Start: 1, Length: 4}, 20},
	} {
		expect.EQ(t, AverageQuality(test.qual, test.w), test.want, "%q %+v", test.qual, test.w)
	}
}

func TestAverageQualityMonotone(t *testing.T) {
	qual := []byte(strings.Repeat("5", 20))
	w := fastq.Window{Start: 0, Length: len(qual)}
	prev := AverageQuality(string(qual), w)
	for i := range qual {
		qual[i] = 'J'
		q := AverageQuality(string(qual), w)
		expect.GE(t, q, prev)
		prev = q
	}
	expect.EQ(t, prev, int('J'-PhredOffset))
}

func TestCheckWindow(t *testing.T) {
	r := fastq.Read{ID: "@r1", Seq: "ACGTACGT", Qual: "IIIIIIII"}
	expect.NoError(t, CheckWindow(&r, fastq.Window{Start: 0, Length: 8}))
	expect.NoError(t, CheckWindow(&r, fastq.Window{Start: 7, Length: 1}))
	for _, w := range []fastq.Window{{Start: 0, Length: 9}, {Start: 8, Length: 1}, {Start: 3, Length: 0}, {Start: -1, Length: 2}, {Start: 2, Length: -1}} {
		err := CheckWindow(&r, w)
		expect.True(t, errors.Is(errors.Invalid, err), "%+v: %v", w, err)
	}
	short := fastq.Read{ID: "@r2", Seq: "ACGTACGT", Qual: "IIII"}
	expect.True(t, errors.Is(errors.Invalid, CheckWindow(&short, fastq.Window{Start: 0, Length: 8})))
}
