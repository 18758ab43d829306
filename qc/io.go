package qc

import (
	"bufio"
	"context"
	"io"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/pairqc/encoding/bgzf"
	"github.com/klauspost/compress/gzip"
)

const outputBufferSize = 1 << 20

// closers closes, in reverse order of registration, the streams opened
// for a run. Each stream is closed exactly once; the first error is
// kept.
type closers struct {
	fns []func() error
	err errors.Once
}

func (c *closers) add(fn func() error) { c.fns = append(c.fns, fn) }

func (c *closers) close() error {
	for i := len(c.fns) - 1; i >= 0; i-- {
		c.err.Set(c.fns[i]())
	}
	c.fns = nil
	return c.err.Err()
}

// openInput opens path for reading. Compressed content (gzip, bzip2,
// zstd) is detected and decompressed transparently.
func openInput(ctx context.Context, path string, c *closers) (io.Reader, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	c.add(func() error { return f.Close(ctx) })
	r, compressed := compress.NewReader(f.Reader(ctx))
	c.add(r.Close)
	log.Debug.Printf("%s: opened, compressed: %v", path, compressed)
	return r, nil
}

// createOutput creates a gzip-compressed output at path. With blocked
// set, the output is BGZF. Writes are buffered.
func createOutput(ctx context.Context, path string, level int, blocked bool, c *closers) (io.Writer, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	c.add(func() error { return f.Close(ctx) })
	var zw io.WriteCloser
	if blocked {
		zw, err = bgzf.NewWriter(f.Writer(ctx), level)
	} else {
		zw, err = gzip.NewWriterLevel(f.Writer(ctx), level)
	}
	if err != nil {
		return nil, errors.E(errors.Invalid, err, path)
	}
	c.add(zw.Close)
	bw := bufio.NewWriterSize(zw, outputBufferSize)
	c.add(bw.Flush)
	return bw, nil
}
