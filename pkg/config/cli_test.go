package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerbosity(t *testing.T) {
	testCases := []struct {
		desc     string
		cli      Cli
		expected int
	}{
		{desc: "default", cli: Cli{}, expected: 0},
		{desc: "quiet wins over verbose", cli: Cli{Quiet: true, Verbose: 3}, expected: -1},
		{desc: "verbose passthrough", cli: Cli{Verbose: 2}, expected: 2},
		{desc: "verbose capped at 4", cli: Cli{Verbose: 9}, expected: 4},
	}
	for _, tt := range testCases {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cli.Verbosity())
		})
	}
}
