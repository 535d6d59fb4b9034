package split

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDictByte = 22

func buildMember(payload []byte) []byte {
	total := 6 + len(payload) + 20
	buf := make([]byte, 0, total)
	buf = append(buf, 'L', 'Z', 'I', 'P', 1, validDictByte)
	buf = append(buf, payload...)
	trailer := make([]byte, 20)
	v := uint64(total)
	for i := 0; i < 8; i++ {
		trailer[12+i] = byte(v)
		v >>= 8
	}
	buf = append(buf, trailer...)
	return buf
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestRunSplitsTwoConcatenatedMembers(t *testing.T) {
	dir := t.TempDir()
	m1 := buildMember(bytes.Repeat([]byte{0x01}, 30))
	m2 := buildMember(bytes.Repeat([]byte{0x02}, 50))

	inPath := filepath.Join(dir, "in.lz")
	require.NoError(t, os.WriteFile(inPath, append(append([]byte{}, m1...), m2...), 0644))

	chdir(t, dir)

	err := Run(Options{Filename: inPath, Suffix: ".lz"})
	require.NoError(t, err)

	got1, err := os.ReadFile("rec00001.lz")
	require.NoError(t, err)
	assert.Equal(t, m1, got1)

	got2, err := os.ReadFile("rec00002.lz")
	require.NoError(t, err)
	assert.Equal(t, m2, got2)
}

func TestRunSingleMemberProducesOneOutput(t *testing.T) {
	dir := t.TempDir()
	m1 := buildMember(bytes.Repeat([]byte{0x09}, 25))
	inPath := filepath.Join(dir, "in.lz")
	require.NoError(t, os.WriteFile(inPath, m1, 0644))

	chdir(t, dir)

	require.NoError(t, Run(Options{Filename: inPath, Suffix: ".lz"}))

	got, err := os.ReadFile("rec00001.lz")
	require.NoError(t, err)
	assert.Equal(t, m1, got)

	_, err = os.Stat("rec00002.lz")
	assert.True(t, os.IsNotExist(err))
}

func TestRunRejectsTooShortInput(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.lz")
	require.NoError(t, os.WriteFile(inPath, []byte("LZIP\x01\x16short"), 0644))

	chdir(t, dir)

	err := Run(Options{Filename: inPath, Suffix: ".lz"})
	require.Error(t, err)
}

func TestNextFilename(t *testing.T) {
	name := []byte("rec00001.lz")
	require.True(t, nextFilename(name))
	assert.Equal(t, "rec00002.lz", string(name))

	name = []byte("rec00009.lz")
	require.True(t, nextFilename(name))
	assert.Equal(t, "rec00010.lz", string(name))

	name = []byte("rec99999.lz")
	assert.False(t, nextFilename(name))
}
