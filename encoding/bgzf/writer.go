// Package bgzf includes a Writer for the .bgzf (block gzipped) file
// format.  A .bgzf file consists of one or more complete gzip blocks
// concatenated together.  Each of the gzip blocks must represent at
// most 64KB of uncompressed data, and the compressed size of the
// block must be at most 64KB.  The payload of the .bgzf file is equal
// to the uncompressed content of each block, concatenated together in
// order.  A valid .bgzf file ends with the 28 byte .bgzf terminator
// shown below; the terminator is a valid gzip block containing an
// empty payload.
//
// Since every block is a complete gzip member, any gzip reader that
// supports multi-member streams reads a .bgzf file as plain gzip.
// FASTQ outputs written this way can be indexed and split by
// block-aware tools.
//
// For more information about the .bgzf file format, see the SAM/BAM
// spec here: https://samtools.github.io/hts-specs/SAMv1.pdf
//
// Example use:
//   var bgzfFile bytes.Buffer
//   w, err := NewWriter(&bgzfFile, gzip.DefaultCompression)
//   n, err := w.Write([]byte("Foo bar"))
//   err = w.Close()
package bgzf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

const (
	// DefaultUncompressedBlockSize is the default bgzf
	// uncompressedBlockSize chosen by both sambamba and biogo.  See
	// the SAM/BAM specification for details.
	DefaultUncompressedBlockSize = 0x0ff00

	// MaxUncompressedBlockSize is the largest legal value for
	// uncompressedBlockSize.
	MaxUncompressedBlockSize = 0x10000

	// compressedBlockSize is the maximum size of the compressed data
	// for a Bgzf block.  See the SAM/BAM specification for details.
	compressedBlockSize = 0x10000
)

var (
	// bgzfExtra goes into the gzip's Extra subfield, with subfield
	// ids: 66, 67, and length 2.  See the SAM/BAM spec.
	bgzfExtra       = [...]byte{66, 67, 2, 0, 0, 0}
	bgzfExtraPrefix = [...]byte{66, 67, 2, 0}

	// terminator is the Bgzf EOF terminator.  It belongs at the end
	// of a valid Bgzf file.  See the SAM/BAM spec.
	terminator = []byte{
		0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0x06, 0x00, 0x42, 0x43,
		0x02, 0x00, 0x1b, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
)

// Writer compresses data into .bgzf format.  Each gzip block carries
// an Extra header field holding the compressed size of the block
// minus 1.  A Writer is not thread safe.
type Writer struct {
	uncompressedSize int
	w                io.Writer
	gz               *gzip.Writer
	original         bytes.Buffer
	compressed       bytes.Buffer
	closed           bool
}

// NewWriter returns a new .bgzf writer with the given compression
// level, using DefaultUncompressedBlockSize.
func NewWriter(w io.Writer, level int) (*Writer, error) {
	return NewWriterSize(w, level, DefaultUncompressedBlockSize)
}

// NewWriterSize returns a new .bgzf writer that puts at most
// uncompressedBlockSize bytes into each block.
func NewWriterSize(w io.Writer, level, uncompressedBlockSize int) (*Writer, error) {
	if uncompressedBlockSize <= 0 || uncompressedBlockSize > MaxUncompressedBlockSize {
		return nil, fmt.Errorf("uncompressedBlockSize %d must be in (0, %d]",
			uncompressedBlockSize, MaxUncompressedBlockSize)
	}
	gz, err := gzip.NewWriterLevel(nil, level)
	if err != nil {
		return nil, err
	}
	return &Writer{
		uncompressedSize: uncompressedBlockSize,
		w:                w,
		gz:               gz,
	}, nil
}

// Write writes buf to the .bgzf payload.  Returns the number of bytes
// consumed from buf and any error encountered.
func (w *Writer) Write(buf []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("bgzf: write after close")
	}
	for i := 0; i < len(buf); {
		// Buffer at most one block at a time, accounting for the
		// straggler bytes left by the previous Write.
		end := len(buf)
		if limit := i + w.uncompressedSize - w.original.Len(); limit < end {
			end = limit
		}
		n, _ := w.original.Write(buf[i:end])
		i += n
		if err := w.flushBlocks(false); err != nil {
			return i, err
		}
	}
	return len(buf), nil
}

// Close compresses any buffered data and appends the .bgzf
// terminator.  It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.flushBlocks(true); err != nil {
		return err
	}
	_, err := w.w.Write(terminator)
	return err
}

// flushBlocks compresses full blocks of w.original, or everything
// buffered when remainder is set, and writes them to w.w.
func (w *Writer) flushBlocks(remainder bool) error {
	for w.original.Len() >= w.uncompressedSize || (remainder && w.original.Len() > 0) {
		w.compressed.Reset()
		w.gz.Reset(&w.compressed)
		w.gz.Header.Extra = append(w.gz.Header.Extra[:0], bgzfExtra[:]...)
		w.gz.Header.OS = 0xff // Unknown OS value
		if _, err := w.gz.Write(w.original.Next(w.uncompressedSize)); err != nil {
			return err
		}
		if err := w.gz.Close(); err != nil {
			return err
		}

		// Patch BSIZE, the compressed block length - 1, into the
		// Extra field, which starts at offset 12 of the gzip header.
		const offset = 12
		b := w.compressed.Bytes()
		bsize := len(b) - 1
		if bsize >= compressedBlockSize {
			return fmt.Errorf("bgzf compressed block is too big: %d > %d", bsize, compressedBlockSize)
		}
		if len(b) < offset+len(bgzfExtra) || !bytes.Equal(b[offset:offset+len(bgzfExtraPrefix)], bgzfExtraPrefix[:]) {
			return fmt.Errorf("bgzf: could not find extra field in gzip header")
		}
		b[offset+4] = byte(bsize)
		b[offset+5] = byte(bsize >> 8)
		if _, err := w.w.Write(b); err != nil {
			return err
		}
	}
	return nil
}
