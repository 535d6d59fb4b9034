package lzipfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeaderRejectsBadMagic(t *testing.T) {
	_, err := ParseHeader([]byte("XZIP\x01\x16"))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestParseHeaderRejectsShortBuffer(t *testing.T) {
	_, err := ParseHeader([]byte("LZI"))
	assert.Error(t, err)
}

func TestHeaderVerify(t *testing.T) {
	assert.ErrorIs(t, Header{Version: 0}.Verify(), ErrVersion0)
	assert.NoError(t, Header{Version: 1}.Verify())

	err := Header{Version: 2}.Verify()
	require.Error(t, err)
	var uerr *UnsupportedVersionError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, byte(2), uerr.Version)
}

func TestDictionarySize(t *testing.T) {
	testCases := []struct {
		desc     string
		dictByte byte
		expected uint32
	}{
		{desc: "plain power of two, no correction bits", dictByte: 22, expected: 1 << 22},
		{desc: "minimum dictionary size", dictByte: 12, expected: 1 << 12},
		{desc: "maximum dictionary size", dictByte: 29, expected: 1 << 29},
		{desc: "fractional correction bits set", dictByte: 22 | (3 << 5), expected: (1 << 22) - (1<<22/16)*3},
	}
	for _, tt := range testCases {
		t.Run(tt.desc, func(t *testing.T) {
			h := Header{DictByte: tt.dictByte}
			assert.Equal(t, tt.expected, h.DictionarySize())
		})
	}
}

func TestDictSizeInRange(t *testing.T) {
	assert.True(t, Header{DictByte: 22}.DictSizeInRange())
	assert.False(t, Header{DictByte: 0}.DictSizeInRange()) // 1 byte, below MinDictSize
}
