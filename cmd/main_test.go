package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type syncBuffer struct {
	bytes.Buffer
	synced int
}

func (b *syncBuffer) Sync() error {
	b.synced++
	return nil
}

func TestExitCode_LogsAndSyncs(t *testing.T) {
	out := &syncBuffer{}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), out, zapcore.InfoLevel)

	code := exitCode(zap.New(core), errors.New("listen tcp :8080: address already in use"))

	assert.Equal(t, 1, code)
	assert.Equal(t, 1, out.synced)
	assert.Contains(t, out.String(), `"msg":"server exited"`)
	assert.Contains(t, out.String(), "address already in use")
}
