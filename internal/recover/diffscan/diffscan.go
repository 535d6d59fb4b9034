// Package diffscan implements the copy-and-diff scanner (spec §4.3): it
// streams N>=2 identically-sized sources in lockstep, writes source 0 to
// an output verbatim, and records the byte ranges where the sources
// disagree.
package diffscan

import (
	"io"

	"github.com/pkg/errors"

	"github.com/crazy-max/lziprecover-go/internal/ioutil"
	"github.com/crazy-max/lziprecover-go/internal/recover/block"
)

const bufferSize = 64 * 1024

// Scan streams sources[0..N) in lockstep, writing sources[0]'s bytes to
// out verbatim, and returns the disjoint, position-sorted blocks where
// the sources disagree. Between any two adjacent returned blocks there
// are at least two consecutive positions where all sources agree.
func Scan(sources []io.Reader, out io.Writer) ([]block.Block, error) {
	if len(sources) < 2 {
		return nil, errors.New("diffscan: need at least 2 sources")
	}
	buffers := make([][]byte, len(sources))
	for i := range buffers {
		buffers[i] = make([]byte, bufferSize)
	}

	var blocks []block.Block
	var inBlock bool
	var blockPos int64
	var equalBytes int
	var partialPos int64

	for {
		rd, err := ioutil.ReadBlock(sources[0], buffers[0])
		if err != nil {
			return nil, errors.Wrap(err, "reading input file")
		}
		if rd > 0 {
			for i := 1; i < len(sources); i++ {
				n, rerr := ioutil.ReadBlock(sources[i], buffers[i][:rd])
				if rerr != nil {
					return nil, errors.Wrap(rerr, "reading input file")
				}
				if n != rd {
					return nil, errors.New("diffscan: input files are different sizes")
				}
			}
			if _, werr := ioutil.WriteBlock(out, buffers[0][:rd]); werr != nil {
				return nil, errors.Wrap(werr, "writing output file")
			}

			for i := 0; i < rd; i++ {
				abs := partialPos + int64(i)
				agree := allAgree(buffers, i)
				if !inBlock {
					if !agree {
						inBlock = true
						blockPos = abs
						equalBytes = 0
					}
					continue
				}
				equalBytes++
				if !agree {
					equalBytes = 0
					continue
				}
				if equalBytes >= 2 {
					blocks = append(blocks, block.Block{
						Pos:  blockPos,
						Size: abs - int64(equalBytes-1) - blockPos,
					})
					inBlock = false
					equalBytes = 0
				}
			}
			partialPos += int64(rd)
		}
		if rd < bufferSize {
			break
		}
	}

	if inBlock {
		blocks = append(blocks, block.Block{Pos: blockPos, Size: partialPos - blockPos})
	}
	return blocks, nil
}

func allAgree(buffers [][]byte, i int) bool {
	for j := 1; j < len(buffers); j++ {
		if buffers[0][i] != buffers[j][i] {
			return false
		}
	}
	return true
}
