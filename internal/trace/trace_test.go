package trace

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledIsNoop(t *testing.T) {
	require.NoError(t, Init(false, nil))
	assert.False(t, Enabled())

	ctx := context.Background()
	got, span := StartSpan(ctx, "stage")
	assert.Equal(t, ctx, got)
	assert.False(t, span.SpanContext().IsValid())
	End(span, errors.New("ignored"))
	assert.NoError(t, Shutdown(ctx))
}

func TestEnabledExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(true, &buf))
	defer Init(false, nil)

	_, span := StartSpan(context.Background(), "load")
	assert.True(t, span.SpanContext().IsValid())
	End(span, errors.New("boom"))
	require.NoError(t, Shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"Name": "load"`)
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, serviceName)
}
