package logging

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDialogLogger_AttachesSessionContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewDialogLogger(NewJSONLogger(&buf, slog.LevelDebug)).WithSession("sess-1", "turn-9")

	l.Info("hello", "k", "v")
	out := buf.String()
	assert.Contains(t, out, `"session_id":"sess-1"`)
	assert.Contains(t, out, `"turn_id":"turn-9"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestDialogLogger_NilBaseIsNoOp(t *testing.T) {
	l := NewDialogLogger(nil)
	l.Info("nothing happens")
	l.LogModelCall("m", time.Millisecond, nil)
	l.LogToolCall("t", time.Millisecond, assert.AnError)
	l.LogTurn("greeting", "execute", "H1", time.Millisecond)
}

func TestZapAdapter(t *testing.T) {
	logger := NewZapAdapter(zap.NewNop())
	logger.Debug("d")
	logger.Info("i", "k", "v")
	logger.Warn("w")
	logger.Error("e")
}
