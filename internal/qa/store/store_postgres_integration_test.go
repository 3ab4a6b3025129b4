//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	archivestore "kycvault/internal/archive/store"
	"kycvault/internal/qa"
	"kycvault/internal/qa/store"
	"kycvault/pkg/domain"
	"kycvault/pkg/platform/sentinel"
	"kycvault/pkg/testutil/containers"
)

type PostgresNoteSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresNoteSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresNoteSuite))
}

func (s *PostgresNoteSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(s.postgres.ApplySchema(context.Background(), archivestore.Schema))
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresNoteSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "qa_notes"))
}

func (s *PostgresNoteSuite) note(archiveName, reviewer string, at time.Time) qa.Note {
	return qa.Note{
		ID:              domain.NewNoteID(),
		ArchiveName:     archiveName,
		RowCount:        120,
		SettlementCount: 45,
		PopulationSum:   410000,
		Reviewer:        reviewer,
		ValidatedAt:     at,
	}
}

func (s *PostgresNoteSuite) TestSaveAndLast() {
	ctx := context.Background()
	name := "kyc_cln_data_Accra_Ghana.zip"
	base := time.Now().UTC().Truncate(time.Microsecond)

	s.Require().NoError(s.store.Save(ctx, s.note(name, "amina", base)))
	latest := s.note(name, "kwame", base.Add(time.Hour))
	s.Require().NoError(s.store.Save(ctx, latest))

	last, err := s.store.LastForArchive(ctx, name)
	s.Require().NoError(err)
	s.Equal("kwame", last.Reviewer)
	s.Equal(latest.ID, last.ID)
	s.Equal(int64(410000), last.PopulationSum)
}

func (s *PostgresNoteSuite) TestLastMissing() {
	_, err := s.store.LastForArchive(context.Background(), "kyc_ori_data_Lagos_Nigeria.zip")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresNoteSuite) TestListOrdersOldestFirst() {
	ctx := context.Background()
	name := "kyc_cln_data_Nairobi_Kenya.zip"
	base := time.Now().UTC().Truncate(time.Microsecond)

	s.Require().NoError(s.store.Save(ctx, s.note(name, "amina", base)))
	s.Require().NoError(s.store.Save(ctx, s.note(name, "kwame", base.Add(time.Minute))))

	notes, err := s.store.ListForArchive(ctx, name)
	s.Require().NoError(err)
	s.Require().Len(notes, 2)
	s.Equal("amina", notes[0].Reviewer)
	s.Equal("kwame", notes[1].Reviewer)
}
