package cmd

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionLine(t *testing.T) {
	originalVersion, originalCommit := version, commit
	defer func() { version, commit = originalVersion, originalCommit }()

	version, commit = "1.2.0", ""
	assert.Equal(t, "easy-applier version: 1.2.0, "+runtime.Version(), versionLine())

	commit = "abc123"
	assert.Equal(t, "easy-applier version: 1.2.0 (commit abc123), "+runtime.Version(), versionLine())
}

func TestVersionCommandWritesToCommandOutput(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "easy-applier version: ")
}
