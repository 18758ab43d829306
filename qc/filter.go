package qc

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/pairqc/encoding/fastq"
	"github.com/grailbio/pairqc/umi"
)

const (
	// Process checks for cancellation once per this many pairs.
	ctxCheckInterval = 1 << 16
	// Progress is logged once per this many pairs.
	logInterval = 1 << 20
)

// Filter decides, pair by pair, which read pairs of two positionally
// paired FASTQ streams to keep. A pair is kept only if the average
// quality of each mate, over the read window, reaches Opts.Qual. Kept
// pairs are trimmed to the read window and, when UMI treatment is
// enabled, annotated with the pair's UMI. A Filter is not thread safe.
type Filter struct {
	opts      Opts
	sep       byte
	corrector *umi.SnapCorrector
}

// Outputs are the destinations of a Filter run. R1 and R2 are
// required; Failed1 and Failed2 are optional and receive the rejected
// pairs unmodified.
type Outputs struct {
	R1, R2           io.Writer
	Failed1, Failed2 io.Writer
}

// NewFilter validates opts and creates a Filter. If opts.UMIFile is
// set, the known UMIs are loaded from it.
func NewFilter(ctx context.Context, opts Opts) (*Filter, error) {
	opts, err := validate(opts)
	if err != nil {
		return nil, err
	}
	f := &Filter{opts: opts}
	if f.sep, err = ParseConnection(opts.Connection); err != nil {
		return nil, err
	}
	if opts.UMIFile != "" {
		data, err := readFile(ctx, opts.UMIFile)
		if err != nil {
			return nil, err
		}
		if f.corrector, err = umi.NewSnapCorrector(data); err != nil {
			return nil, errors.E(err, opts.UMIFile)
		}
		if f.corrector.K() != opts.UMILength {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("%s: known umis have length %d, but umiLength is %d",
				opts.UMIFile, f.corrector.K(), opts.UMILength))
		}
	}
	return f, nil
}

func readFile(ctx context.Context, path string) (data []byte, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	return ioutil.ReadAll(in.Reader(ctx))
}

// Opts returns the validated options of f.
func (f *Filter) Opts() Opts { return f.opts }

// Window returns the window of r that is scored and written: from
// ReadStart, ReadLength bytes long, or to the end of the read when
// ReadLength is zero. The window is not validated.
func (f *Filter) Window(r *fastq.Read) fastq.Window {
	w := fastq.Window{Start: f.opts.ReadStart, Length: f.opts.ReadLength}
	if w.Length == 0 {
		w.Length = len(r.Seq) - w.Start
	}
	return w
}

// score returns the read window of r and its average quality.
func (f *Filter) score(r *fastq.Read) (fastq.Window, int, error) {
	w := f.Window(r)
	if err := CheckWindow(r, w); err != nil {
		return w, 0, err
	}
	return w, AverageQuality(r.Qual, w), nil
}

// Accept reports whether the pair (r1, r2) passes the quality
// threshold: both mates must reach it. It returns an errors.Invalid
// error when the read window does not fit in either mate.
func (f *Filter) Accept(r1, r2 *fastq.Read) (bool, error) {
	_, q1, err := f.score(r1)
	if err != nil {
		return false, err
	}
	_, q2, err := f.score(r2)
	if err != nil {
		return false, err
	}
	return q1 >= f.opts.Qual && q2 >= f.opts.Qual, nil
}

// UMI returns the UMI of the pair (r1, r2), or "" if UMI treatment is
// disabled. Each half is snapped to a known UMI when a UMI file was
// given; the returned flag reports whether any half changed.
func (f *Filter) UMI(r1, r2 *fastq.Read) (string, bool, error) {
	if !f.opts.UMI {
		return "", false, nil
	}
	u, err := umi.Extract(r1.Seq, r2.Seq, f.opts.UMIStart, f.opts.UMILength, f.sep)
	if err != nil {
		return "", false, errors.E(err, fmt.Sprintf("read %s", r1.Name()))
	}
	if f.corrector == nil {
		return u, false, nil
	}
	u1, u2, _ := umi.Split(u)
	u1, _, c1 := f.corrector.CorrectUMI(u1)
	u2, _, c2 := f.corrector.CorrectUMI(u2)
	return umi.Join(u1, u2, f.sep), c1 || c2, nil
}

// Process filters the read pairs of in1 and in2 into out. It stops at
// the end of the inputs or at the first error. Pairs written before an
// error are kept. Unequal numbers of reads in in1 and in2 are an
// error, reported once all matched pairs were processed.
func (f *Filter) Process(ctx context.Context, in1, in2 io.Reader, out Outputs) (Stats, error) {
	var (
		stats  Stats
		r1, r2 fastq.Read
		sc     = fastq.NewPairScanner(in1, in2, fastq.All)
		wopts  = fastq.WriterOpts{Separator: f.sep, DropComment: f.opts.DisComment}
		w1     = fastq.NewWriter(out.R1, wopts)
		w2     = fastq.NewWriter(out.R2, wopts)
		fw1    *fastq.Writer
		fw2    *fastq.Writer
	)
	if out.Failed1 != nil && out.Failed2 != nil {
		fw1 = fastq.NewWriter(out.Failed1, wopts)
		fw2 = fastq.NewWriter(out.Failed2, wopts)
	}
	for sc.Scan(&r1, &r2) {
		if stats.Pairs%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}
		stats.Pairs++
		if stats.Pairs%logInterval == 0 {
			log.Printf("%s: %dMi read pairs, %d passed", f.opts.Read1, stats.Pairs/logInterval, stats.Passed)
		}
		win1, q1, err := f.score(&r1)
		if err != nil {
			return stats, err
		}
		win2, q2, err := f.score(&r2)
		if err != nil {
			return stats, err
		}
		pass1, pass2 := q1 >= f.opts.Qual, q2 >= f.opts.Qual
		if !pass1 || !pass2 {
			stats.fail(pass1, pass2)
			if fw1 != nil {
				if err := fw1.WriteRaw(&r1); err != nil {
					return stats, errors.E(err, "write", f.opts.Failed1)
				}
				if err := fw2.WriteRaw(&r2); err != nil {
					return stats, errors.E(err, "write", f.opts.Failed2)
				}
			}
			continue
		}
		u, corrected, err := f.UMI(&r1, &r2)
		if err != nil {
			return stats, err
		}
		if corrected {
			stats.UMICorrected++
		}
		if err := w1.Write(&r1, win1, u); err != nil {
			return stats, errors.E(err, "write", f.opts.Out1)
		}
		if err := w2.Write(&r2, win2, u); err != nil {
			return stats, errors.E(err, "write", f.opts.Out2)
		}
		stats.Passed++
	}
	if err := sc.Err(); err != nil {
		return stats, errors.E(errors.Integrity, err)
	}
	return stats, nil
}
