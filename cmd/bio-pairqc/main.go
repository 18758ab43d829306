// bio-pairqc filters paired-end FASTQ files by average base quality.
//
// The two inputs are read in lock-step. A read pair is kept only if the
// average quality of both mates reaches -qual; kept pairs are trimmed and
// written to two gzip outputs. With -umi, a UMI is cut from each mate's
// sequence and appended to the read names:
//
//   bio-pairqc -1 in_R1.fastq.gz -2 in_R2.fastq.gz -3 out_R1.fastq.gz -4 out_R2.fastq.gz \
//     -umi -umiStart 0 -umiLength 3 -readStart 3 -connection U
package main

import (
	"context"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/pairqc/qc"
	"v.io/x/lib/cmdline"
)

// newCmd returns the bio-pairqc command. Flag values are stored in opts.
func newCmd(opts *qc.Opts) *cmdline.Command {
	*opts = qc.DefaultOpts
	cmd := &cmdline.Command{
		Name:     "bio-pairqc",
		Short:    "Filter paired-end FASTQ files by quality and extract UMIs",
		LookPath: false,
	}
	f := &cmd.Flags
	for _, name := range []string{"read1", "1"} {
		f.StringVar(&opts.Read1, name, "", "Input R1 FASTQ path, plain or compressed (required)")
	}
	for _, name := range []string{"read2", "2"} {
		f.StringVar(&opts.Read2, name, "", "Input R2 FASTQ path, plain or compressed (required)")
	}
	for _, name := range []string{"out1", "3"} {
		f.StringVar(&opts.Out1, name, "", "Output R1 FASTQ path, gzip compressed (required)")
	}
	for _, name := range []string{"out2", "4"} {
		f.StringVar(&opts.Out2, name, "", "Output R2 FASTQ path, gzip compressed (required)")
	}
	for _, name := range []string{"qual", "q"} {
		f.IntVar(&opts.Qual, name, qc.DefaultOpts.Qual, "Minimum average base quality of each mate")
	}
	f.BoolVar(&opts.UMI, "umi", qc.DefaultOpts.UMI, "Extract a UMI from each read pair and append it to the read names")
	f.IntVar(&opts.UMIStart, "umiStart", qc.DefaultOpts.UMIStart, "0-based start of the UMI in each mate; requires -umi")
	f.IntVar(&opts.UMILength, "umiLength", qc.DefaultOpts.UMILength, "Length of the UMI in each mate; requires -umi")
	f.StringVar(&opts.UMIFile, "umiFile", qc.DefaultOpts.UMIFile,
		"File of known UMIs, one per line. Each half of an extracted UMI is snapped to its closest known UMI; requires -umi")
	f.IntVar(&opts.ReadStart, "readStart", qc.DefaultOpts.ReadStart,
		"0-based start of the part of each read that is scored and written; requires -umi")
	f.IntVar(&opts.ReadLength, "readLength", qc.DefaultOpts.ReadLength,
		"Length of the part of each read that is scored and written; 0 means to the end of the read")
	f.StringVar(&opts.Connection, "connection", qc.DefaultOpts.Connection,
		"Character between the read name and the UMI: S (space), C (colon) or U (underline)")
	f.BoolVar(&opts.DisComment, "disComment", qc.DefaultOpts.DisComment, "Drop read name comments from the outputs")
	f.IntVar(&opts.Level, "level", qc.DefaultOpts.Level, "Gzip compression level of the outputs, 1 to 9")
	f.BoolVar(&opts.BGZF, "bgzf", qc.DefaultOpts.BGZF, "Write block-gzipped (BGZF) outputs")
	f.StringVar(&opts.Failed1, "failed1", "", "If set, rejected R1 reads are written here unmodified; requires -failed2")
	f.StringVar(&opts.Failed2, "failed2", "", "If set, rejected R2 reads are written here unmodified; requires -failed1")
	f.StringVar(&opts.StatsPath, "stats", "", "If set, run statistics are written here as TSV")

	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("bio-pairqc takes no positional arguments, but got %v", argv)
		}
		log.Debug.Printf("bio-pairqc: %+v", *opts)
		stats, err := qc.Run(context.Background(), *opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(env.Stdout, stats)
		return nil
	})
	return cmd
}

func main() {
	var opts qc.Opts
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newCmd(&opts))
}
