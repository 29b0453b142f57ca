package parser_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vidalaboral/internal/parser"
	"vidalaboral/mocks"
)

func TestRetryParser_SucceedsAfterTransientFailure(t *testing.T) {
	inner := new(mocks.MockDocumentParser)
	inner.On("Parse", mock.Anything, pageInput).Return(nil, errors.New("timeout")).Once()
	inner.On("Parse", mock.Anything, pageInput).Return(fallbackOutput("pixtral"), nil).Once()

	rp := parser.NewRetryParser(inner, "openrouter", 2, time.Millisecond)

	result, err := rp.Parse(context.Background(), pageInput)

	require.NoError(t, err)
	assert.Equal(t, "pixtral", result.ModelUsed)
	inner.AssertNumberOfCalls(t, "Parse", 2)
}

func TestRetryParser_GivesUpAfterMaxRetries(t *testing.T) {
	inner := new(mocks.MockDocumentParser)
	inner.On("Parse", mock.Anything, pageInput).Return(nil, errors.New("boom"))

	rp := parser.NewRetryParser(inner, "openrouter", 2, time.Millisecond)

	_, err := rp.Parse(context.Background(), pageInput)

	assert.EqualError(t, err, "boom")
	inner.AssertNumberOfCalls(t, "Parse", 3)
}

func TestRetryParser_RateLimitNotRetried(t *testing.T) {
	inner := new(mocks.MockDocumentParser)
	inner.On("Parse", mock.Anything, pageInput).Return(nil, parser.NewRateLimitError("openrouter", errors.New("429"), 10))

	rp := parser.NewRetryParser(inner, "openrouter", 3, time.Millisecond)

	_, err := rp.Parse(context.Background(), pageInput)

	var rlErr *parser.RateLimitError
	assert.True(t, errors.As(err, &rlErr))
	inner.AssertNumberOfCalls(t, "Parse", 1)
}

func TestRetryParser_StopsOnCancelledContext(t *testing.T) {
	inner := new(mocks.MockDocumentParser)
	inner.On("Parse", mock.Anything, pageInput).Return(nil, errors.New("boom")).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rp := parser.NewRetryParser(inner, "openrouter", 3, time.Hour)

	_, err := rp.Parse(ctx, pageInput)

	assert.EqualError(t, err, "boom")
	inner.AssertNumberOfCalls(t, "Parse", 1)
}
