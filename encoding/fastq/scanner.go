package fastq

import (
	"bufio"
	"errors"
	"io"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrShort is returned when a truncated FASTQ file is encountered.
	ErrShort = errors.New("short FASTQ file")
	// ErrInvalid is returned when an invalid FASTQ file is encountered.
	ErrInvalid = errors.New("invalid FASTQ file")
	// ErrLength is returned when a read's sequence and quality lines differ
	// in length.
	ErrLength = errors.New("FASTQ sequence and quality lengths differ")
	// ErrDiscordant is returned when two underlying FASTQ files are discordant.
	ErrDiscordant = errors.New("discordant FASTQ pairs")
)

// MaxLineLength is the longest FASTQ line the scanner accepts.
const MaxLineLength = 16 << 20

// A Read is a FASTQ read, comprising an ID, sequence, line 3
// ("unknown"), and a quality string. ID is the full header line,
// including the leading '@'.
type Read struct {
	ID, Seq, Unk, Qual string
}

// Name returns the read name: the header without its leading '@', up
// to the first space or tab.
func (r *Read) Name() string {
	id := strings.TrimPrefix(r.ID, "@")
	if i := strings.IndexAny(id, " \t"); i >= 0 {
		return id[:i]
	}
	return id
}

// Comment returns the text following the read name on the header
// line. The boolean is false when the header carries no comment at
// all; a header ending in a single space has an empty, but present,
// comment.
func (r *Read) Comment() (string, bool) {
	id := strings.TrimPrefix(r.ID, "@")
	i := strings.IndexAny(id, " \t")
	if i < 0 {
		return "", false
	}
	return id[i+1:], true
}

// Trim cuts the read and quality lengths to at most n.
func (r *Read) Trim(n int) {
	r.Seq = r.Seq[:n]
	r.Qual = r.Qual[:n]
}

var errEOF = errors.New("eof")

// Scanner provides a convenient interface for reading FASTQ read
// data. The Scan method returns the next read, returning a boolean
// indicating whether the read succeeded. Scanners are not
// threadsafe.
//
// Scanner requires ID lines to begin with "@" and line 3 to begin
// with "+". When both Seq and Qual are requested it also requires the
// two to be of equal length. Base and quality values are not checked.
type Scanner struct {
	b      *bufio.Scanner
	err    error
	fields Field
	n      int
}

// Field enumerates FASTQ fields. It is used to specify fields to read in
// NewScanner.
type Field uint

const (
	// ID causes the Read.ID field to be filled
	ID Field = 1 << iota
	// Seq causes the Read.Seq field to be filled
	Seq
	// Unk causes the Read.Unk field to be filled
	Unk
	// Qual causes the Read.Qual field to be filled
	Qual
	// All equals ID|Seq|Unk|Qual.
	All = ID | Seq | Unk | Qual
)

// NewScanner constructs a new Scanner that reads raw FASTQ data from the
// provided reader. Fields is a bitset of the fields to read. A typical value
// would be All or ID|Seq|Qual.
func NewScanner(r io.Reader, fields Field) *Scanner {
	b := bufio.NewScanner(r)
	b.Buffer(make([]byte, 64<<10), MaxLineLength)
	return &Scanner{b: b, fields: fields}
}

// Scan the next read into the provided read. Scan returns a boolean
// indicating whether the scan succeeded. Once Scan returns false, it
// never returns true again. Upon completion, the user should check
// the Err method to determine whether scanning stopped because of an
// error or because the end of the stream was reached.
func (f *Scanner) Scan(read *Read) bool {
	if f.err != nil {
		return false
	}
	if !f.b.Scan() {
		if f.err = f.b.Err(); f.err == nil {
			f.err = errEOF
		}
		return false
	}
	id := f.b.Bytes()
	if len(id) == 0 || id[0] != '@' {
		f.err = ErrInvalid
		return false
	}
	if f.fields&ID != 0 {
		read.ID = string(id)
	}
	if !f.scan() {
		return false
	}
	if f.fields&Seq != 0 {
		read.Seq = f.b.Text()
	}
	if !f.scan() {
		return false
	}
	unk := f.b.Bytes()
	if len(unk) == 0 || unk[0] != '+' {
		f.err = ErrInvalid
		return false
	}
	if f.fields&Unk != 0 {
		read.Unk = string(unk)
	}
	if !f.scan() {
		return false
	}
	if f.fields&Qual != 0 {
		read.Qual = f.b.Text()
	}
	if f.fields&(Seq|Qual) == Seq|Qual && len(read.Seq) != len(read.Qual) {
		f.err = ErrLength
		return false
	}
	f.n++
	return true
}

func (f *Scanner) scan() bool {
	ok := f.b.Scan()
	if !ok {
		if f.err = f.b.Err(); f.err == nil {
			f.err = ErrShort
		}
	}
	return ok
}

// Err returns the scanning error, if any.
func (f *Scanner) Err() error {
	if f.err == errEOF {
		return nil
	}
	return f.err
}

// N returns the number of reads scanned successfully so far.
func (f *Scanner) N() int { return f.n }

// PairScanner composes a pair of scanners to scan a pair of FASTQ
// streams. The two streams are paired by position: the i'th read of
// R1 is the mate of the i'th read of R2.
type PairScanner struct {
	r1, r2 *Scanner
	err    error
}

// NewPairScanner creates a new FASTQ pair scanner from the provided
// R1 and R2 readers.
func NewPairScanner(r1, r2 io.Reader, fields Field) *PairScanner {
	return &PairScanner{
		r1: NewScanner(r1, fields),
		r2: NewScanner(r2, fields),
	}
}

// Scan scans the next read pair into r1, r2. R2 is scanned only after
// R1 was scanned. Scan returns a boolean indicating whether the scan
// succeeded. Once Scan returns false, it never returns true again.
// Upon completion, the user should check the Err method to determine
// whether scanning stopped because of an error or because the end of
// the stream was reached.
//
// When R1 is exhausted, Scan still probes R2 once: a remaining R2 read
// makes the pair discordant.
func (p *PairScanner) Scan(r1, r2 *Read) bool {
	if p.err != nil {
		return false
	}
	ok1 := p.r1.Scan(r1)
	if !ok1 && p.r1.Err() != nil {
		return false
	}
	ok2 := p.r2.Scan(r2)
	if ok1 != ok2 && p.r2.Err() == nil {
		p.err = ErrDiscordant
	}
	return ok1 && ok2
}

// Err returns the scanning error, if any. It should be checked
// after Scan returns false. Errors from the underlying scanners are
// annotated with the mate and the read ordinal; errors.Cause returns
// the sentinel.
func (p *PairScanner) Err() error {
	if err := p.r1.Err(); err != nil {
		return pkgerrors.Wrapf(err, "R1 read %d", p.r1.N()+1)
	}
	if err := p.r2.Err(); err != nil {
		return pkgerrors.Wrapf(err, "R2 read %d", p.r2.N()+1)
	}
	if p.err != nil {
		return pkgerrors.Wrapf(p.err, "after %d pairs", p.N())
	}
	return nil
}

// N returns the number of pairs scanned successfully so far.
func (p *PairScanner) N() int {
	if n1, n2 := p.r1.N(), p.r2.N(); n1 < n2 {
		return n1
	}
	return p.r2.N()
}
