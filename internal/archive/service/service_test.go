package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycvault/internal/archive"
	archivestore "kycvault/internal/archive/store"
	"kycvault/internal/catalog"
	"kycvault/internal/provenance"
	provstore "kycvault/internal/provenance/store"
	vaulterrors "kycvault/pkg/errors"
)

func digestOf(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func newTestService(t *testing.T) (*Service, *provenance.Recorder) {
	t.Helper()
	recorder := provenance.NewRecorder(provstore.NewMemory())
	svc := New(archivestore.NewMemory(), catalog.NewMemory(), recorder,
		WithClock(func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }),
	)
	return svc, recorder
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	record, err := svc.Register(ctx, RegisterInput{
		Filename:     "kyc_cln_data_Accra_Ghana.zip",
		Digest:       digestOf("accra cleaned"),
		SizeBytes:    2048,
		RegisteredBy: "field-team",
	})
	require.NoError(t, err)
	assert.Equal(t, archive.KindCleaned, record.Kind)
	assert.Equal(t, "Accra", record.City)
	assert.Equal(t, "Ghana", record.Country)
	assert.Equal(t, 1, record.Version)
	assert.True(t, record.Authoritative())

	history, err := svc.History(ctx, record.Name)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, provenance.ActionArchiveRegistered, history[0].Action)
	assert.Equal(t, "field-team", history[0].Actor)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Register(ctx, RegisterInput{Filename: "notes.txt", Digest: digestOf("x")})
	require.Error(t, err)
	ve, ok := err.(vaulterrors.VaultError)
	require.True(t, ok)
	assert.Equal(t, vaulterrors.CodeInvalidName, ve.Code)

	_, err = svc.Register(ctx, RegisterInput{Filename: "kyc_ori_data_Accra_Ghana.zip", Digest: "short"})
	require.Error(t, err)
	ve, ok = err.(vaulterrors.VaultError)
	require.True(t, ok)
	assert.Equal(t, vaulterrors.CodeBadRequest, ve.Code)

	// Non-canonical version suffixes never reach the registry: accepting one
	// would store a name the caller's filename no longer finds.
	_, err = svc.Register(ctx, RegisterInput{Filename: "kyc_cln_data_Accra_Ghana_v01.zip", Digest: digestOf("x")})
	require.Error(t, err)
	ve, ok = err.(vaulterrors.VaultError)
	require.True(t, ok)
	assert.Equal(t, vaulterrors.CodeInvalidName, ve.Code)
}

// Once published, bytes never change in place: re-registering a name is
// refused even with a different digest.
func TestRegisterImmutable(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	in := RegisterInput{
		Filename: "kyc_ori_data_Lagos_Nigeria.zip",
		Digest:   digestOf("first"),
	}
	_, err := svc.Register(ctx, in)
	require.NoError(t, err)

	in.Digest = digestOf("second")
	_, err = svc.Register(ctx, in)
	require.Error(t, err)
	ve, ok := err.(vaulterrors.VaultError)
	require.True(t, ok)
	assert.Equal(t, vaulterrors.CodeImmutableArchive, ve.Code)
}

func TestGetUnknownArchive(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), "kyc_ori_data_Accra_Ghana.zip")
	require.Error(t, err)
	ve, ok := err.(vaulterrors.VaultError)
	require.True(t, ok)
	assert.Equal(t, vaulterrors.CodeNotFound, ve.Code)
}

func TestVerifyMatchAndMismatch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	digest := digestOf("accra cleaned")
	_, err := svc.Register(ctx, RegisterInput{
		Filename: "kyc_cln_data_Accra_Ghana.zip",
		Digest:   digest,
	})
	require.NoError(t, err)

	match, err := svc.Verify(ctx, "kyc_cln_data_Accra_Ghana.zip", digest, "qa-desk")
	require.NoError(t, err)
	assert.True(t, match.Match)

	// Mismatch is reported, not returned as an error.
	mismatch, err := svc.Verify(ctx, "kyc_cln_data_Accra_Ghana.zip", digestOf("tampered"), "qa-desk")
	require.NoError(t, err)
	assert.False(t, mismatch.Match)

	checks, err := svc.Verifications(ctx, "kyc_cln_data_Accra_Ghana.zip")
	require.NoError(t, err)
	require.Len(t, checks, 2)

	history, err := svc.History(ctx, "kyc_cln_data_Accra_Ghana.zip")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, provenance.ActionArchiveVerified, history[1].Action)
	assert.Equal(t, provenance.ActionChecksumMismatch, history[2].Action)
	assert.Equal(t, -1, provenance.VerifyChain(history))
}

func TestSupersede(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Register(ctx, RegisterInput{
		Filename: "kyc_cln_data_Accra_Ghana.zip",
		Digest:   digestOf("v1"),
	})
	require.NoError(t, err)

	successor, err := svc.Supersede(ctx, "kyc_cln_data_Accra_Ghana.zip", SupersedeInput{
		Digest: digestOf("v2"),
		Actor:  "qa-desk",
	})
	require.NoError(t, err)
	assert.Equal(t, "kyc_cln_data_Accra_Ghana_v2.zip", successor.Name)
	assert.Equal(t, 2, successor.Version)

	old, err := svc.Get(ctx, "kyc_cln_data_Accra_Ghana.zip")
	require.NoError(t, err)
	assert.Equal(t, successor.Name, old.SupersededBy)
	assert.False(t, old.Authoritative())
	// The old digest is untouched; history, not mutation.
	assert.Equal(t, digestOf("v1"), old.Digest)

	// The successor's chain shows where it came from.
	history, err := svc.History(ctx, successor.Name)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, provenance.ActionArchiveRegistered, history[0].Action)
	assert.Equal(t, provenance.ActionArchivePacked, history[1].Action)
	assert.Equal(t, "re-packed from kyc_cln_data_Accra_Ghana.zip", history[1].Detail)

	// A second supersession of the same archive is refused.
	_, err = svc.Supersede(ctx, "kyc_cln_data_Accra_Ghana.zip", SupersedeInput{Digest: digestOf("v3")})
	require.Error(t, err)
	ve, ok := err.(vaulterrors.VaultError)
	require.True(t, ok)
	assert.Equal(t, vaulterrors.CodeConflict, ve.Code)
}

func TestSupersedeChainsVersions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Register(ctx, RegisterInput{
		Filename: "kyc_settlement_population_extract_v1.zip",
		Digest:   digestOf("pop v1"),
	})
	require.NoError(t, err)

	v2, err := svc.Supersede(ctx, "kyc_settlement_population_extract_v1.zip", SupersedeInput{Digest: digestOf("pop v2")})
	require.NoError(t, err)
	assert.Equal(t, "kyc_settlement_population_extract_v2.zip", v2.Name)

	v3, err := svc.Supersede(ctx, v2.Name, SupersedeInput{Digest: digestOf("pop v3")})
	require.NoError(t, err)
	assert.Equal(t, "kyc_settlement_population_extract_v3.zip", v3.Name)

	records, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestGetUsesCatalog(t *testing.T) {
	ctx := context.Background()
	recorder := provenance.NewRecorder(provstore.NewMemory())
	store := archivestore.NewMemory()
	cat := catalog.NewMemory()
	svc := New(store, cat, recorder)

	record, err := svc.Register(ctx, RegisterInput{
		Filename: "kyc_ori_data_Nairobi_Kenya.zip",
		Digest:   digestOf("nairobi"),
	})
	require.NoError(t, err)

	// Registration primes the catalog.
	cached, err := cat.Get(ctx, record.Name)
	require.NoError(t, err)
	assert.Equal(t, record.Digest, cached.Digest)
}
