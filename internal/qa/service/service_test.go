package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycvault/internal/provenance"
	provstore "kycvault/internal/provenance/store"
	qastore "kycvault/internal/qa/store"
	"kycvault/internal/survey"
	vaulterrors "kycvault/pkg/errors"
)

func newTestService(t *testing.T) (*Service, *provenance.Recorder) {
	t.Helper()
	recorder := provenance.NewRecorder(provstore.NewMemory())
	svc := New(qastore.NewMemory(), recorder,
		WithClock(func() time.Time { return time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC) }),
	)
	return svc, recorder
}

func TestValidateAndCheck(t *testing.T) {
	svc, recorder := newTestService(t)
	ctx := context.Background()

	summary := survey.Summary{
		RowCount:      42,
		SettlementIDs: []string{"GHA001", "GHA002"},
		PopulationSum: 98000,
	}

	note, err := svc.Validate(ctx, "kyc_cln_data_Accra_Ghana.zip", summary, "amina")
	require.NoError(t, err)
	assert.False(t, note.ID.IsNil())
	assert.Equal(t, "amina", note.Reviewer)
	assert.Equal(t, 42, note.RowCount)

	mismatches, err := svc.CheckExtract(ctx, "kyc_cln_data_Accra_Ghana.zip", summary)
	require.NoError(t, err)
	assert.Empty(t, mismatches)

	history, err := recorder.History(ctx, "kyc_cln_data_Accra_Ghana.zip")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, provenance.ActionFiguresValidated, history[0].Action)
	assert.Equal(t, "amina", history[0].Actor)
	assert.Equal(t, provenance.ActionArchiveExtracted, history[1].Action)
}

func TestCheckExtractReportsDrift(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	baseline := survey.Summary{
		RowCount:      42,
		SettlementIDs: []string{"GHA001", "GHA002"},
		PopulationSum: 98000,
	}
	_, err := svc.Validate(ctx, "kyc_cln_data_Accra_Ghana.zip", baseline, "amina")
	require.NoError(t, err)

	drifted := survey.Summary{
		RowCount:      41,
		SettlementIDs: []string{"GHA001", "GHA002"},
		PopulationSum: 95000,
	}
	mismatches, err := svc.CheckExtract(ctx, "kyc_cln_data_Accra_Ghana.zip", drifted)
	require.NoError(t, err)
	require.Len(t, mismatches, 2)
	assert.Equal(t, "row_count", mismatches[0].Figure)
	assert.Equal(t, "population_sum", mismatches[1].Figure)
}

func TestCheckExtractNoBaseline(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CheckExtract(context.Background(), "kyc_ori_data_Lagos_Nigeria.zip", survey.Summary{})
	require.Error(t, err)
	ve, ok := err.(vaulterrors.VaultError)
	require.True(t, ok)
	assert.Equal(t, vaulterrors.CodeNotFound, ve.Code)
}

func TestValidateRejectsMissingFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Validate(ctx, "", survey.Summary{}, "amina")
	require.Error(t, err)

	_, err = svc.Validate(ctx, "kyc_ori_data_Accra_Ghana.zip", survey.Summary{}, "")
	require.Error(t, err)
}

func TestValidateKeepsLatestAsBaseline(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	name := "kyc_cln_data_Nairobi_Kenya.zip"

	first := survey.Summary{RowCount: 10, SettlementIDs: []string{"KEN001"}, PopulationSum: 100}
	second := survey.Summary{RowCount: 12, SettlementIDs: []string{"KEN001", "KEN002"}, PopulationSum: 160}

	_, err := svc.Validate(ctx, name, first, "amina")
	require.NoError(t, err)
	_, err = svc.Validate(ctx, name, second, "kwame")
	require.NoError(t, err)

	mismatches, err := svc.CheckExtract(ctx, name, second)
	require.NoError(t, err)
	assert.Empty(t, mismatches)

	notes, err := svc.Notes(ctx, name)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "amina", notes[0].Reviewer)
	assert.Equal(t, "kwame", notes[1].Reviewer)
}
