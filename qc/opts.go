package qc

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
)

// Unset marks an optional position flag that was not given.
const Unset = -1

// Opts configures a paired FASTQ filtering run. An Opts value is built
// once, typically from command-line flags, and is not modified after
// it is handed to NewFilter or Run.
type Opts struct {
	// Read1 and Read2 are the input FASTQ paths, plain or compressed.
	Read1, Read2 string
	// Out1 and Out2 receive the pairs that pass the filter.
	Out1, Out2 string
	// Failed1 and Failed2, if set, receive the rejected pairs, unmodified.
	Failed1, Failed2 string
	// StatsPath, if set, receives a one-row TSV of run statistics.
	StatsPath string

	// Qual is the minimum average base quality each mate must reach.
	Qual int

	// UMI enables UMI extraction. UMIStart and UMILength select the
	// window of each mate's sequence that forms the UMI; both mates use
	// the same window.
	UMI                 bool
	UMIStart, UMILength int
	// UMIFile optionally names a list of known UMIs, one per line. Each
	// half of an extracted UMI is snapped to its closest known UMI.
	UMIFile string

	// ReadStart and ReadLength select the window of each read that is
	// scored and written. ReadLength 0 means "to the end of the read".
	ReadStart, ReadLength int

	// Connection selects the character placed between the read name and
	// the UMI: "S" (space), "C" (colon) or "U" (underline).
	Connection string
	// DisComment drops header comments from the output.
	DisComment bool

	// Level is the gzip compression level of the outputs, 1 to 9.
	Level int
	// BGZF writes block-gzipped outputs instead of a single gzip member.
	BGZF bool
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	Qual:       30,
	UMIStart:   Unset,
	UMILength:  Unset,
	ReadStart:  Unset,
	ReadLength: 0,
	Connection: "C",
	Level:      4,
}

// ParseConnection returns the separator character named by s. Both the
// one-letter codes and the full names are accepted.
func ParseConnection(s string) (byte, error) {
	switch strings.ToLower(s) {
	case "s", "space":
		return ' ', nil
	case "c", "colon":
		return ':', nil
	case "u", "underline", "underscore":
		return '_', nil
	}
	return 0, errors.E(errors.Invalid, fmt.Sprintf("connection must be one of S, C or U, not %q", s))
}

func invalid(format string, args ...interface{}) error {
	return errors.E(errors.Invalid, fmt.Sprintf(format, args...))
}

// validate checks opts and returns a copy with unset positions
// resolved.
func validate(opts Opts) (Opts, error) {
	if opts.Read1 == "" || opts.Read2 == "" {
		return opts, invalid("both -read1 and -read2 are required")
	}
	if opts.Out1 == "" || opts.Out2 == "" {
		return opts, invalid("both -out1 and -out2 are required")
	}
	if (opts.Failed1 == "") != (opts.Failed2 == "") {
		return opts, invalid("-failed1 and -failed2 must be set together")
	}
	if opts.UMI {
		if opts.UMIStart == Unset || opts.UMILength == Unset || opts.ReadStart == Unset {
			return opts, invalid("-umiStart, -umiLength and -readStart are all needed for umi treatment")
		}
	} else {
		if opts.UMIStart != Unset || opts.UMILength != Unset || opts.ReadStart != Unset {
			return opts, invalid("-umiStart, -umiLength or -readStart is set, but -umi is not")
		}
		if opts.UMIFile != "" {
			return opts, invalid("-umiFile is set, but -umi is not")
		}
		opts.ReadStart = 0
	}
	if opts.Qual < 0 {
		return opts, invalid("qual must be non-negative, not %d", opts.Qual)
	}
	if opts.UMI && opts.UMIStart < 0 {
		return opts, invalid("umiStart must be non-negative, not %d", opts.UMIStart)
	}
	if opts.UMI && opts.UMILength <= 0 {
		return opts, invalid("umiLength must be positive, not %d", opts.UMILength)
	}
	if opts.ReadStart < 0 {
		return opts, invalid("readStart must be non-negative, not %d", opts.ReadStart)
	}
	if opts.ReadLength < 0 {
		return opts, invalid("readLength must be non-negative, not %d", opts.ReadLength)
	}
	if _, err := ParseConnection(opts.Connection); err != nil {
		return opts, err
	}
	if opts.Level < 1 || opts.Level > 9 {
		return opts, invalid("level must be in [1, 9], not %d", opts.Level)
	}
	return opts, nil
}
