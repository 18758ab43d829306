package umi

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

var (
	alphabetMap = map[byte]bool{
		'A': true,
		'C': true,
		'G': true,
		'T': true,
	}

	alphabetWithNMap = map[byte]bool{
		'A': true,
		'C': true,
		'G': true,
		'T': true,
		'N': true,
	}
)

type snapCorrectorEntry struct {
	knownUMI string
	edits    int
}

// SnapCorrector implements "snap" correction of UMIs.  A umi U is
// snappable if there is a known umi U1 that is closer to U than all
// other known umis, in terms of Levenshtein edit distance.
//
// Corrections are computed on first use and memoized, so the cost is
// proportional to the number of distinct UMIs seen rather than to the
// 5^k possible k-mers. SnapCorrector is not thread safe.
type SnapCorrector struct {
	knownUMIs []string
	k         int

	// correctionTable caches the outcome for every umi seen so far. An
	// entry with edits < 0 marks a umi that cannot be snapped.
	correctionTable map[string]snapCorrectorEntry
}

// NewSnapCorrector creates a new snap corrector.  The knownUMIs are a
// \n separated list of UMIs (identical to the file content of a list
// of UMIs, where each line contains a UMI).  Each UMI should consist
// of characters ACGT, and all UMIs must have the same length. Blank
// lines are ignored.
func NewSnapCorrector(knownUMIs []byte) (*SnapCorrector, error) {
	scanner := bufio.NewScanner(bytes.NewReader(knownUMIs))
	c := &SnapCorrector{
		k:               -1,
		correctionTable: map[string]snapCorrectorEntry{},
	}
	for scanner.Scan() {
		umi := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if umi == "" {
			continue
		}
		if c.k < 0 {
			c.k = len(umi)
		}
		if len(umi) != c.k {
			return nil, errors.E(errors.Invalid,
				fmt.Sprintf("umi %s has length %d, other umis have length %d", umi, len(umi), c.k))
		}
		if !validUMI(umi, false) {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("invalid base in known umi %v", umi))
		}
		c.knownUMIs = append(c.knownUMIs, umi)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if c.k < 0 {
		return nil, errors.E(errors.Invalid, "no umis in input")
	}
	log.Debug.Printf("snap corrector: %d known umis of length %d", len(c.knownUMIs), c.k)
	return c, nil
}

// K returns the length of the known UMIs.
func (c *SnapCorrector) K() int { return c.k }

// CorrectUMI returns a corrected umi, number of edits to the
// corrected umi, and true if there is exactly one known UMI that is
// closest to the original umi with respect to Levenshtein edit
// distance, and that UMI differs from the original.  A umi that is
// already known is returned with 0 edits and false.  Otherwise,
// CorrectUMI returns the original umi, -1, and false.  UMIs with
// bases other than ACGTN, or of the wrong length, are never
// corrected.
func (c *SnapCorrector) CorrectUMI(umi string) (correctedUMI string, edits int, corrected bool) {
	umi = strings.ToUpper(umi)
	entry, ok := c.correctionTable[umi]
	if !ok {
		entry = c.snap(umi)
		c.correctionTable[umi] = entry
	}
	if entry.edits < 0 {
		return umi, -1, false
	}
	return entry.knownUMI, entry.edits, entry.knownUMI != umi
}

func (c *SnapCorrector) snap(umi string) snapCorrectorEntry {
	if len(umi) != c.k || !validUMI(umi, true) {
		return snapCorrectorEntry{edits: -1}
	}
	best, nBest := -1, 0
	var bestUMI string
	for _, known := range c.knownUMIs {
		d := matchr.Levenshtein(umi, known)
		switch {
		case best < 0 || d < best:
			best, nBest, bestUMI = d, 1, known
		case d == best:
			nBest++
		}
	}
	if nBest != 1 {
		return snapCorrectorEntry{edits: -1}
	}
	log.Debug.Printf("%s snaps to %s with cost %d", umi, bestUMI, best)
	return snapCorrectorEntry{knownUMI: bestUMI, edits: best}
}

func validUMI(umi string, allowN bool) bool {
	for i := 0; i < len(umi); i++ {
		if (allowN && !alphabetWithNMap[umi[i]]) || (!allowN && !alphabetMap[umi[i]]) {
			return false
		}
	}
	return true
}
