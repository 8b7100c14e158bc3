package courierrepo_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/adapters/out/postgres/courierrepo"
	"dispatch/internal/adapters/out/postgres/pgtest"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type CourierRepositoryTestSuite struct {
	suite.Suite
	db   *pgtest.Database
	repo *courierrepo.GormCourierRepository
}

func TestCourierRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(CourierRepositoryTestSuite))
}

func (suite *CourierRepositoryTestSuite) SetupSuite() {
	if testing.Short() {
		suite.T().Skip("integration test: requires docker")
	}
	db, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.db = db
	suite.repo = courierrepo.NewGormCourierRepository(db.DB)
}

func (suite *CourierRepositoryTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Truncate())
}

func (suite *CourierRepositoryTestSuite) TearDownSuite() {
	if suite.db != nil {
		suite.Require().NoError(suite.db.Terminate(context.Background()))
	}
}

func (suite *CourierRepositoryTestSuite) newCourier(name string) *courier.Courier {
	c, err := courier.NewCourier(kernel.NewUUID(), name, "55 0000 0000", t0)
	suite.Require().NoError(err)
	return c
}

func (suite *CourierRepositoryTestSuite) TestAddAndGet() {
	ctx := context.Background()
	c := suite.newCourier("Ruta Norte")
	suite.Require().NoError(suite.repo.Add(ctx, c))

	got, err := suite.repo.Get(ctx, c.ID())
	suite.Require().NoError(err)
	suite.True(c.IsEqual(got))
	suite.Equal("Ruta Norte", got.DisplayName())
	suite.Equal("55 0000 0000", got.Phone())
	suite.Equal(0, got.ActiveCount())
	suite.Equal(1, got.Version())
	suite.True(got.CreatedAt().Equal(t0))
}

func (suite *CourierRepositoryTestSuite) TestAddDuplicate() {
	ctx := context.Background()
	c := suite.newCourier("Ruta Sur")
	suite.Require().NoError(suite.repo.Add(ctx, c))
	suite.ErrorIs(suite.repo.Add(ctx, c), errs.ErrConflict)
}

func (suite *CourierRepositoryTestSuite) TestGetMissing() {
	_, err := suite.repo.Get(context.Background(), kernel.NewUUID())
	suite.ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *CourierRepositoryTestSuite) TestActiveOrdersPersistInClaimOrder() {
	ctx := context.Background()
	c := suite.newCourier("Ruta Oriente")
	suite.Require().NoError(suite.repo.Add(ctx, c))

	first, second := kernel.NewUUID(), kernel.NewUUID()
	suite.Require().NoError(c.Claim(first, 3))
	suite.Require().NoError(c.Claim(second, 3))
	suite.Require().NoError(suite.repo.Update(ctx, c))
	suite.Equal(2, c.Version())

	got, err := suite.repo.Get(ctx, c.ID())
	suite.Require().NoError(err)
	suite.Require().Len(got.ActiveOrders(), 2)
	suite.True(got.ActiveOrders()[0].IsEqual(first))
	suite.True(got.ActiveOrders()[1].IsEqual(second))

	suite.Require().NoError(got.Release(first))
	suite.Require().NoError(suite.repo.Update(ctx, got))

	again, err := suite.repo.Get(ctx, c.ID())
	suite.Require().NoError(err)
	suite.False(again.IsHolding(first))
	suite.True(again.IsHolding(second))
	suite.Equal(3, again.Version())
}

func (suite *CourierRepositoryTestSuite) TestStaleClaimConflicts() {
	ctx := context.Background()
	c := suite.newCourier("Ruta Poniente")
	suite.Require().NoError(suite.repo.Add(ctx, c))

	a, err := suite.repo.Get(ctx, c.ID())
	suite.Require().NoError(err)
	b, err := suite.repo.Get(ctx, c.ID())
	suite.Require().NoError(err)

	suite.Require().NoError(a.Claim(kernel.NewUUID(), 1))
	suite.Require().NoError(suite.repo.Update(ctx, a))

	suite.Require().NoError(b.Claim(kernel.NewUUID(), 1), "b still sees a free slot")
	suite.ErrorIs(suite.repo.Update(ctx, b), errs.ErrConflict)

	got, err := suite.repo.Get(ctx, c.ID())
	suite.Require().NoError(err)
	suite.Equal(1, got.ActiveCount())
}

func (suite *CourierRepositoryTestSuite) TestUpdateMissing() {
	c := suite.newCourier("Ruta Centro")
	suite.ErrorIs(suite.repo.Update(context.Background(), c), errs.ErrObjectNotFound)
}

func (suite *CourierRepositoryTestSuite) TestGetAllOrderedByID() {
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C"} {
		suite.Require().NoError(suite.repo.Add(ctx, suite.newCourier(name)))
	}

	all, err := suite.repo.GetAll(ctx)
	suite.Require().NoError(err)
	suite.Require().Len(all, 3)
	for i := 1; i < len(all); i++ {
		suite.Less(all[i-1].ID().String(), all[i].ID().String())
	}
}
