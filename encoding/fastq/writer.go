package fastq

import "io"

var (
	newline = []byte{'\n'}
	plus    = []byte("\n+\n")
)

// A Window is the byte range [Start, Start+Length) of a read's sequence
// and quality lines.
type Window struct {
	Start, Length int
}

// End returns the exclusive end of the window.
func (w Window) End() int { return w.Start + w.Length }

// WriterOpts controls how a Writer renders read headers.
type WriterOpts struct {
	// Separator is placed between the read name and the UMI.
	Separator byte
	// DropComment causes the header comment to be omitted.
	DropComment bool
}

// Writer is a FASTQ file writer.
type Writer struct {
	w    io.Writer
	opts WriterOpts
	err  error
}

// NewWriter constructs a new FASTQ writer
// that writes reads to the underlying writer w.
func NewWriter(w io.Writer, opts WriterOpts) *Writer {
	return &Writer{w: w, opts: opts}
}

// Write writes the window win of read r in FASTQ format. A non-empty
// umi is appended to the read name, after the separator. Line 3 is
// always written as a bare "+". The window is not validated; it must
// lie within r.Seq and r.Qual.
// An error is returned if the write failed.
func (w *Writer) Write(r *Read, win Window, umi string) error {
	w.write("@")
	w.write(r.Name())
	if umi != "" {
		w.writeByte(w.opts.Separator)
		w.write(umi)
	}
	if comment, ok := r.Comment(); ok && !w.opts.DropComment {
		w.writeByte(' ')
		w.write(comment)
	}
	w.writeByte('\n')
	w.write(r.Seq[win.Start:win.End()])
	if w.err == nil {
		_, w.err = w.w.Write(plus)
	}
	w.write(r.Qual[win.Start:win.End()])
	w.writeByte('\n')
	return w.err
}

// WriteRaw writes r unchanged.
func (w *Writer) WriteRaw(r *Read) error {
	w.writeln(r.ID)
	w.writeln(r.Seq)
	w.writeln(r.Unk)
	w.writeln(r.Qual)
	return w.err
}

func (w *Writer) write(s string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, s)
}

func (w *Writer) writeByte(b byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write([]byte{b})
}

func (w *Writer) writeln(line string) {
	w.write(line)
	if w.err == nil {
		_, w.err = w.w.Write(newline)
	}
}
