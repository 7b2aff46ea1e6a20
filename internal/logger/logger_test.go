package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoBlockLogsEveryLine(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	InfoBlock("sentiment: 25 (Extreme Fear)\nNEW: BTC LONG @ 64000.00\n\n2 active")

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "msg="), "blank lines must be dropped, the rest logged one per line")
	assert.Contains(t, out, "sentiment: 25 (Extreme Fear)")
	assert.Contains(t, out, "2 active")
}

func TestInfoBlockIgnoresEmptyInput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	InfoBlock("   \n  ")
	assert.Empty(t, buf.String())
}
