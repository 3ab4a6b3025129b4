package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEmptyContext(t *testing.T) {
	_, ok := From(context.Background())
	assert.False(t, ok)
}

func TestWithTxNil(t *testing.T) {
	ctx := WithTx(context.Background(), nil)
	_, ok := From(ctx)
	assert.False(t, ok)
}

// A nil Runner degrades to calling the function directly, so memory-backed
// setups need no database.
func TestNilRunnerPassthrough(t *testing.T) {
	var r *Runner

	called := false
	err := r.RunInTx(context.Background(), func(ctx context.Context) error {
		called = true
		_, ok := From(ctx)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	wantErr := errors.New("boom")
	err = r.RunInTx(context.Background(), func(context.Context) error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
}

func TestRunnerWithoutDB(t *testing.T) {
	r := NewRunner(nil)

	called := false
	err := r.RunInTx(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}
