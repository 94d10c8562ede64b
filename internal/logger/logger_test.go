package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Build(Config{Level: "debug", Component: "test"}, &buf)
	l.Debug().Str("k", "v").Msg("hello")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "test", rec["component"])
	assert.Equal(t, "v", rec["k"])
	assert.Contains(t, rec, "timestamp")
}

func TestBuildRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Build(Config{Level: "warn"}, &buf)
	l.Info().Msg("dropped")
	assert.Zero(t, buf.Len())
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	parent := Build(Config{}, &buf)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithProcess(WithComponent(ctx, "api"), "geo:distbear")
	FromContext(ctx, &parent).Info().Msg("x")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, "api", rec["component"])
	assert.Equal(t, "geo:distbear", rec["process"])
}

func TestFromContextNilParentDiscards(t *testing.T) {
	l := FromContext(context.Background(), nil)
	require.NotNil(t, l)
	l.Info().Msg("nowhere")
}

func TestWithRequestIDGenerates(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	assert.Len(t, RequestID(ctx), 16)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
}
