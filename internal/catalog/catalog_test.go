package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycvault/internal/archive"
	"kycvault/pkg/platform/sentinel"
)

func testRecord(name string) archive.Record {
	return archive.Record{
		Name:         name,
		Kind:         archive.KindCleaned,
		City:         "Accra",
		Country:      "Ghana",
		Version:      1,
		Digest:       "60303ae22b998861bce3b28f33eec1be758a213c86c93c076dbe9f558c11c752",
		SizeBytes:    4096,
		RegisteredAt: time.Now(),
	}
}

func TestMemoryPutGet(t *testing.T) {
	cat := NewMemory()
	ctx := context.Background()
	record := testRecord("kyc_cln_data_Accra_Ghana.zip")

	require.NoError(t, cat.Put(ctx, record))

	cached, err := cat.Get(ctx, record.Name)
	require.NoError(t, err)
	assert.Equal(t, record.Digest, cached.Digest)
}

func TestMemoryMiss(t *testing.T) {
	cat := NewMemory()

	_, err := cat.Get(context.Background(), "kyc_ori_data_Lagos_Nigeria.zip")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryInvalidate(t *testing.T) {
	cat := NewMemory()
	ctx := context.Background()
	record := testRecord("kyc_cln_data_Accra_Ghana.zip")

	require.NoError(t, cat.Put(ctx, record))
	require.NoError(t, cat.Invalidate(ctx, record.Name))

	_, err := cat.Get(ctx, record.Name)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryExpiry(t *testing.T) {
	cat := NewMemory()
	cat.ttl = 10 * time.Millisecond
	ctx := context.Background()
	record := testRecord("kyc_cln_data_Accra_Ghana.zip")

	require.NoError(t, cat.Put(ctx, record))
	time.Sleep(20 * time.Millisecond)

	_, err := cat.Get(ctx, record.Name)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
