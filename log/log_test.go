package log

import (
	"bytes"
	stdlog "log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintf_debugGate(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)
	flags := stdlog.Flags()
	stdlog.SetFlags(0)
	defer func() {
		SetOutput(os.Stderr)
		stdlog.SetFlags(flags)
		AllowDebug = false
	}()

	AllowDebug = false
	Printf("[DEBUG] hidden %d", 1)
	Printf("[INFO] shown %d", 2)
	assert.Equal(t, "[INFO] shown 2\n", buf.String())

	buf.Reset()
	AllowDebug = true
	Printf("[DEBUG] shown %d", 3)
	assert.Equal(t, "[DEBUG] shown 3\n", buf.String())
}

func TestLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", Level("[DEBUG] x"))
	assert.Equal(t, "WARN", Level("[WARN] store/bolt y"))
	assert.Equal(t, "INFO", Level("no prefix"))
	assert.Equal(t, "INFO", Level("[broken prefix"))
}
