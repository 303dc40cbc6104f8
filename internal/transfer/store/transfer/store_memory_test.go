package transfer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "fowlgate/pkg/domain"
	"fowlgate/pkg/platform/sentinel"

	"fowlgate/internal/transfer/models"
)

type TransferStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *TransferStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestTransferStoreSuite(t *testing.T) {
	suite.Run(t, new(TransferStoreSuite))
}

func (s *TransferStoreSuite) newTransfer(fowlID id.FowlID) *models.TransferRequest {
	seller := id.UserID(uuid.New())
	buyer := id.UserID(uuid.New())
	t, err := models.NewTransferRequest(
		id.TransferID(uuid.New()), fowlID, seller, &buyer,
		1200, id.CurrencyINR, "Mandal market",
		models.BirdTransferDetails{BirdName: "Chitti", BirdType: "Kadaknath"},
		models.FraudPreventionData{SessionID: uuid.NewString()},
		time.Now(),
	)
	s.Require().NoError(err)
	return t
}

func (s *TransferStoreSuite) TestCreateAndFind() {
	t := s.newTransfer(id.FowlID(uuid.New()))
	s.Require().NoError(s.store.Create(s.ctx, t))
	s.Equal(int64(1), t.Version)

	found, err := s.store.FindByID(s.ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(t.ID, found.ID)
	s.Equal(models.StatusInitiated, found.Status)

	active, err := s.store.FindActiveByFowl(s.ctx, t.FowlID)
	s.Require().NoError(err)
	s.Equal(t.ID, active.ID)
}

func (s *TransferStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(s.ctx, id.TransferID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindActiveByFowl(s.ctx, id.FowlID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *TransferStoreSuite) TestSecondActiveTransferRejected() {
	fowl := id.FowlID(uuid.New())
	s.Require().NoError(s.store.Create(s.ctx, s.newTransfer(fowl)))

	err := s.store.Create(s.ctx, s.newTransfer(fowl))
	s.ErrorIs(err, sentinel.ErrDuplicate)
}

func (s *TransferStoreSuite) TestInactiveTransferAllowsNewActive() {
	fowl := id.FowlID(uuid.New())
	first := s.newTransfer(fowl)
	s.Require().NoError(s.store.Create(s.ctx, first))

	first.ApplyCancellation("seller withdrew")
	s.Require().NoError(s.store.Update(s.ctx, first))

	s.NoError(s.store.Create(s.ctx, s.newTransfer(fowl)))
}

func (s *TransferStoreSuite) TestUpdateVersionGuard() {
	t := s.newTransfer(id.FowlID(uuid.New()))
	s.Require().NoError(s.store.Create(s.ctx, t))

	// Two readers take the same snapshot.
	a, err := s.store.FindByID(s.ctx, t.ID)
	s.Require().NoError(err)
	b, err := s.store.FindByID(s.ctx, t.ID)
	s.Require().NoError(err)

	a.Notes = "first writer"
	s.Require().NoError(s.store.Update(s.ctx, a))
	s.Equal(int64(2), a.Version)

	b.Notes = "second writer"
	s.ErrorIs(s.store.Update(s.ctx, b), sentinel.ErrConflict)

	// The loser re-reads and retries cleanly.
	fresh, err := s.store.FindByID(s.ctx, t.ID)
	s.Require().NoError(err)
	s.Equal("first writer", fresh.Notes)
	fresh.Notes = "second writer"
	s.NoError(s.store.Update(s.ctx, fresh))
}

func (s *TransferStoreSuite) TestUpdateMissing() {
	t := s.newTransfer(id.FowlID(uuid.New()))
	t.Version = 1
	s.ErrorIs(s.store.Update(s.ctx, t), sentinel.ErrNotFound)
}

func (s *TransferStoreSuite) TestListByParty() {
	fowl1 := id.FowlID(uuid.New())
	fowl2 := id.FowlID(uuid.New())
	t1 := s.newTransfer(fowl1)
	t1.InitiatedDate = time.Now().Add(-time.Hour)
	t2 := s.newTransfer(fowl2)
	t2.SellerID = t1.SellerID
	s.Require().NoError(s.store.Create(s.ctx, t1))
	s.Require().NoError(s.store.Create(s.ctx, t2))

	asSeller, err := s.store.ListByParty(s.ctx, t1.SellerID, true)
	s.Require().NoError(err)
	s.Require().Len(asSeller, 2)
	// Newest first.
	s.Equal(t2.ID, asSeller[0].ID)

	asBuyer, err := s.store.ListByParty(s.ctx, *t1.BuyerID, true)
	s.Require().NoError(err)
	s.Require().Len(asBuyer, 1)
	s.Equal(t1.ID, asBuyer[0].ID)

	none, err := s.store.ListByParty(s.ctx, id.UserID(uuid.New()), true)
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *TransferStoreSuite) TestReadsAreSnapshots() {
	t := s.newTransfer(id.FowlID(uuid.New()))
	s.Require().NoError(s.store.Create(s.ctx, t))

	read, err := s.store.FindByID(s.ctx, t.ID)
	s.Require().NoError(err)
	read.Notes = "mutated by caller"

	again, err := s.store.FindByID(s.ctx, t.ID)
	s.Require().NoError(err)
	s.Empty(again.Notes)
}
