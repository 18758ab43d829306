package qc

import (
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// Run filters the read pairs of opts.Read1 and opts.Read2 into
// opts.Out1 and opts.Out2 and returns the run's statistics. Options are
// validated before any file is opened. Every stream opened is closed,
// whether or not the run succeeds; pairs written before an error are
// kept.
func Run(ctx context.Context, opts Opts) (stats Stats, err error) {
	f, err := NewFilter(ctx, opts)
	if err != nil {
		return Stats{}, err
	}
	opts = f.Opts()
	log.Debug.Printf("pairqc: %+v", opts)

	var c closers
	defer func() {
		if e := c.close(); e != nil && err == nil {
			err = e
		}
	}()
	in1, err := openInput(ctx, opts.Read1, &c)
	if err != nil {
		return
	}
	in2, err := openInput(ctx, opts.Read2, &c)
	if err != nil {
		return
	}
	var out Outputs
	if out.R1, err = createOutput(ctx, opts.Out1, opts.Level, opts.BGZF, &c); err != nil {
		return
	}
	if out.R2, err = createOutput(ctx, opts.Out2, opts.Level, opts.BGZF, &c); err != nil {
		return
	}
	if opts.Failed1 != "" {
		if out.Failed1, err = createOutput(ctx, opts.Failed1, opts.Level, opts.BGZF, &c); err != nil {
			return
		}
		if out.Failed2, err = createOutput(ctx, opts.Failed2, opts.Level, opts.BGZF, &c); err != nil {
			return
		}
	}
	if stats, err = f.Process(ctx, in1, in2, out); err != nil {
		log.Error.Printf("%s, %s: stopped after %d pairs: %v", opts.Read1, opts.Read2, stats.Pairs, err)
		return
	}
	if err = c.close(); err != nil {
		return
	}
	log.Printf("%s, %s: %v", opts.Read1, opts.Read2, stats)
	if opts.StatsPath != "" {
		err = writeStats(ctx, opts.StatsPath, stats)
	}
	return
}

func writeStats(ctx context.Context, path string, stats Stats) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "open", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	return stats.WriteTSV(out.Writer(ctx))
}
