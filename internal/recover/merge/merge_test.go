package merge

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crazy-max/lziprecover-go/internal/exitcode"
	"github.com/crazy-max/lziprecover-go/internal/oracle"
)

// validDictByte encodes an in-range 4 MiB dictionary size with no
// fractional-size correction bits set.
const validDictByte = 22

func buildMember(payload []byte) []byte {
	total := 6 + len(payload) + 20
	buf := make([]byte, 0, total)
	buf = append(buf, 'L', 'Z', 'I', 'P', 1, validDictByte)
	buf = append(buf, payload...)
	trailer := make([]byte, 20)
	putLE64(trailer[12:20], uint64(total))
	buf = append(buf, trailer...)
	return buf
}

func putLE64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v)
		v >>= 8
	}
}

func writeTemp(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// neverDecode reports every trial as a failure; used for scenarios where
// the engine must bail before ever reaching the search loop.
func neverDecode(io.ReadSeeker, int64) (oracle.Result, error) {
	return oracle.Result{Success: false, FailurePos: -1}, nil
}

func TestRunHappyPathTwoCopies(t *testing.T) {
	dir := t.TempDir()
	payload := bytes.Repeat([]byte{0xAA}, 40)
	good := buildMember(payload)

	copyA := append([]byte(nil), good...)
	copyA[6+5] = 0xC1 // damage offset 5 in copy A

	copyB := append([]byte(nil), good...)
	copyB[6+30] = 0xC2 // damage offset 30 in copy B, different position

	pathA := writeTemp(t, dir, "a.lz", copyA)
	pathB := writeTemp(t, dir, "b.lz", copyB)
	outPath := filepath.Join(dir, "out.lz")

	decode := func(r io.ReadSeeker, length int64) (oracle.Result, error) {
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		ok := int64(len(data)) == length &&
			data[6+5] == good[6+5] &&
			data[6+30] == good[6+30]
		if ok {
			return oracle.Result{Success: true, FailurePos: -1}, nil
		}
		return oracle.Result{Success: false, FailurePos: -1}, nil
	}

	res, err := Run(Options{
		Filenames: []string{pathA, pathB},
		Output:    outPath,
		Decode:    decode,
	})
	require.NoError(t, err)
	assert.False(t, res.NotNeeded)

	merged, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, good, merged)
}

func TestRunAllInputsIdentical(t *testing.T) {
	dir := t.TempDir()
	good := buildMember(bytes.Repeat([]byte{0x42}, 20))
	pathA := writeTemp(t, dir, "a.lz", good)
	pathB := writeTemp(t, dir, "b.lz", good)

	_, err := Run(Options{
		Filenames: []string{pathA, pathB},
		Output:    filepath.Join(dir, "out.lz"),
		Decode:    neverDecode,
	})
	require.Error(t, err)
	assert.Equal(t, exitcode.Environmental, exitcode.CodeOf(err))
}

func TestRunSingleSharedByteDamage(t *testing.T) {
	dir := t.TempDir()
	payload := bytes.Repeat([]byte{0x10}, 20)
	good := buildMember(payload)

	copyA := append([]byte(nil), good...)
	copyA[6+8] = 0xE1

	copyB := append([]byte(nil), good...)
	copyB[6+8] = 0xE2 // same position, different wrong value

	pathA := writeTemp(t, dir, "a.lz", copyA)
	pathB := writeTemp(t, dir, "b.lz", copyB)

	_, err := Run(Options{
		Filenames: []string{pathA, pathB},
		Output:    filepath.Join(dir, "out.lz"),
		Decode:    neverDecode,
	})
	require.Error(t, err)
	assert.Equal(t, exitcode.Environmental, exitcode.CodeOf(err))
}

func TestRunNotNeededWhenAnInputAlreadyDecodes(t *testing.T) {
	dir := t.TempDir()
	good := buildMember(bytes.Repeat([]byte{0x07}, 16))
	damaged := append([]byte(nil), good...)
	damaged[6+2] = 0x99

	pathGood := writeTemp(t, dir, "good.lz", good)
	pathBad := writeTemp(t, dir, "bad.lz", damaged)

	calls := 0
	decode := func(r io.ReadSeeker, length int64) (oracle.Result, error) {
		calls++
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		if bytes.Equal(data, good) {
			return oracle.Result{Success: true, FailurePos: -1}, nil
		}
		return oracle.Result{Success: false, FailurePos: -1}, nil
	}

	res, err := Run(Options{
		Filenames: []string{pathGood, pathBad},
		Output:    filepath.Join(dir, "out.lz"),
		Decode:    decode,
	})
	require.NoError(t, err)
	assert.True(t, res.NotNeeded)
	assert.Equal(t, pathGood, res.Which)
	_, statErr := os.Stat(filepath.Join(dir, "out.lz"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunRequiresAtLeastTwoFiles(t *testing.T) {
	_, err := Run(Options{Filenames: []string{"only-one"}, Decode: neverDecode})
	require.Error(t, err)
	assert.Equal(t, exitcode.Environmental, exitcode.CodeOf(err))
}

func TestSaturatingPow(t *testing.T) {
	assert.Equal(t, int64(8), saturatingPow(2, 3))
	assert.Equal(t, int64(1), saturatingPow(5, 0))
	assert.Equal(t, int32Max, saturatingPow(2, 62))
}
