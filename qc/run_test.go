package qc

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

func writeGzip(t *testing.T, path, data string) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(data))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, ioutil.WriteFile(path, buf.Bytes(), 0644))
}

func readGzip(t *testing.T, path string) string {
	f, err := os.Open(path)
	assert.NoError(t, err)
	defer f.Close() // nolint: errcheck
	r, err := gzip.NewReader(f)
	assert.NoError(t, err)
	data, err := ioutil.ReadAll(r)
	assert.NoError(t, err)
	return string(data)
}

// runOpts returns options for a run inside dir, with r1 and r2 written
// as gzip inputs.
func runOpts(t *testing.T, dir string, opts Opts, r1, r2 string) Opts {
	opts.Read1 = filepath.Join(dir, "in_R1.fastq.gz")
	opts.Read2 = filepath.Join(dir, "in_R2.fastq.gz")
	opts.Out1 = filepath.Join(dir, "out_R1.fastq.gz")
	opts.Out2 = filepath.Join(dir, "out_R2.fastq.gz")
	writeGzip(t, opts.Read1, r1)
	writeGzip(t, opts.Read2, r2)
	return opts
}

func TestRunRejectAll(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	opts := runOpts(t, dir, baseOpts(),
		"@r1\nACGT\n+\nIIII\n",
		"@r1\nTGCA\n+\n::::\n")
	stats, err := Run(context.Background(), opts)
	assert.NoError(t, err)
	expect.EQ(t, stats, Stats{Pairs: 1, FailedR2: 1})
	expect.EQ(t, readGzip(t, opts.Out1), "")
	expect.EQ(t, readGzip(t, opts.Out2), "")
}

func TestRunUMI(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	opts := umiOpts(0, 3, 3)
	opts.Qual = 0
	opts.Connection = "U"
	opts = runOpts(t, dir, opts,
		"@id\nAAACCCC\n+\nIIIIIII\n",
		"@id\nGGGTTTT\n+\nIIIIIII\n")
	stats, err := Run(context.Background(), opts)
	assert.NoError(t, err)
	expect.EQ(t, stats.Passed, int64(1))
	expect.EQ(t, readGzip(t, opts.Out1), "@id_AAA_GGG\nCCCC\n+\nIIII\n")
	expect.EQ(t, readGzip(t, opts.Out2), "@id_AAA_GGG\nTTTT\n+\nIIII\n")
}

func TestRunPlainInput(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	opts := runOpts(t, dir, baseOpts(), "", "")
	opts.Read1 = filepath.Join(dir, "plain_R1.fastq")
	opts.Read2 = filepath.Join(dir, "plain_R2.fastq")
	assert.NoError(t, ioutil.WriteFile(opts.Read1, []byte("@r1 x\nACGT\n+\nIIII\n"), 0644))
	assert.NoError(t, ioutil.WriteFile(opts.Read2, []byte("@r1 y\nTGCA\n+\nIIII\n"), 0644))
	_, err := Run(context.Background(), opts)
	assert.NoError(t, err)
	expect.EQ(t, readGzip(t, opts.Out1), "@r1 x\nACGT\n+\nIIII\n")
	expect.EQ(t, readGzip(t, opts.Out2), "@r1 y\nTGCA\n+\nIIII\n")
}

func TestRunFailedAndStats(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	opts := baseOpts()
	opts.Failed1 = filepath.Join(dir, "failed_R1.fastq.gz")
	opts.Failed2 = filepath.Join(dir, "failed_R2.fastq.gz")
	opts.StatsPath = filepath.Join(dir, "stats.tsv")
	opts.BGZF = true
	opts = runOpts(t, dir, opts, procR1, procR2)
	_, err := Run(context.Background(), opts)
	assert.NoError(t, err)

	expect.EQ(t, readGzip(t, opts.Out1), "@p1 c1\nACGTACGT\n+\nIIIIIIII\n")
	expect.EQ(t, readGzip(t, opts.Failed1), strings.SplitAfterN(procR1, "\n", 5)[4])
	expect.EQ(t, readGzip(t, opts.Failed2), strings.SplitAfterN(procR2, "\n", 5)[4])

	data, err := ioutil.ReadFile(opts.StatsPath)
	assert.NoError(t, err)
	expect.EQ(t, string(data),
		"pairs\tpassed\tfailed_r1\tfailed_r2\tfailed_both\tumi_corrected\n4\t1\t1\t1\t1\t0\n")
}

func TestRunSnapCorrection(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	opts := umiOpts(0, 3, 3)
	opts.Qual = 0
	opts.UMIFile = filepath.Join(dir, "umis.txt")
	assert.NoError(t, ioutil.WriteFile(opts.UMIFile, []byte("AAA\nGGG\nTTT\n"), 0644))
	opts = runOpts(t, dir, opts,
		"@a\nAATCCCC\n+\nIIIIIII\n@b\nAAACCCC\n+\nIIIIIII\n",
		"@a\nGGGTTTT\n+\nIIIIIII\n@b\nGGGTTTT\n+\nIIIIIII\n")
	stats, err := Run(context.Background(), opts)
	assert.NoError(t, err)
	expect.EQ(t, stats.UMICorrected, int64(1))
	expect.EQ(t, readGzip(t, opts.Out1),
		"@a:AAA:GGG\nCCCC\n+\nIIII\n@b:AAA:GGG\nCCCC\n+\nIIII\n")

	opts.UMILength = 2
	_, err = Run(context.Background(), opts)
	expect.True(t, errors.Is(errors.Invalid, err), err)
}

func TestRunErrors(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	// Invalid options touch no file.
	opts := baseOpts()
	opts.Out1 = filepath.Join(dir, "never.fastq.gz")
	opts.Level = 0
	_, err := Run(context.Background(), opts)
	expect.True(t, errors.Is(errors.Invalid, err), err)
	_, err = os.Stat(opts.Out1)
	expect.True(t, os.IsNotExist(err))

	opts = baseOpts()
	opts.Read1 = filepath.Join(dir, "missing_R1.fastq.gz")
	opts.Read2 = filepath.Join(dir, "missing_R2.fastq.gz")
	opts.Out1 = filepath.Join(dir, "o1.fastq.gz")
	opts.Out2 = filepath.Join(dir, "o2.fastq.gz")
	_, err = Run(context.Background(), opts)
	expect.True(t, errors.Is(errors.NotExist, err), err)

	// Discordant inputs: the matched pairs are written and the outputs
	// are closed.
	opts = runOpts(t, dir, baseOpts(),
		"@r1\nACGT\n+\nIIII\n@r2\nACGT\n+\nIIII\n",
		"@r1\nTGCA\n+\nIIII\n")
	stats, err := Run(context.Background(), opts)
	expect.True(t, errors.Is(errors.Integrity, err), err)
	expect.EQ(t, stats.Passed, int64(1))
	expect.EQ(t, readGzip(t, opts.Out1), "@r1\nACGT\n+\nIIII\n")
	expect.EQ(t, readGzip(t, opts.Out2), "@r1\nTGCA\n+\nIIII\n")
}

func TestMain(m *testing.M) {
	shutdown := grail.Init()
	defer shutdown()
	os.Exit(m.Run())
}
