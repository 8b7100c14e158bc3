package memory_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type UnitOfWorkSuite struct {
	suite.Suite
	ctx     context.Context
	factory *memory.UnitOfWorkFactory
}

func TestUnitOfWorkSuite(t *testing.T) {
	suite.Run(t, new(UnitOfWorkSuite))
}

func (s *UnitOfWorkSuite) SetupTest() {
	s.ctx = context.Background()
	s.factory = memory.NewUnitOfWorkFactory(memory.NewStore())
}

func (s *UnitOfWorkSuite) newOrder(folio string, origin order.Origin, createdAt time.Time) *order.Order {
	item, err := order.NewLineItem("SKU-AGUA-20L", 1, decimal.RequireFromString("35.50"))
	s.Require().NoError(err)
	o, err := order.NewOrder(kernel.NewUUID(), order.Intake{
		Folio:       folio,
		Origin:      origin,
		CustomerRef: "CUST-" + folio,
		Address:     "Calle Madero 5",
		Items:       []order.LineItem{item},
		Priority:    order.PriorityNormal,
	}, createdAt)
	s.Require().NoError(err)
	return o
}

func (s *UnitOfWorkSuite) addOrder(o *order.Order) {
	uow := s.factory.Create()
	s.Require().NoError(uow.Begin(s.ctx))
	s.Require().NoError(uow.OrderRepository().Add(s.ctx, o))
	s.Require().NoError(uow.Commit(s.ctx))
}

func (s *UnitOfWorkSuite) addCourier(name string) *courier.Courier {
	c, err := courier.NewCourier(kernel.NewUUID(), name, "", t0)
	s.Require().NoError(err)
	uow := s.factory.Create()
	s.Require().NoError(uow.Begin(s.ctx))
	s.Require().NoError(uow.CourierRepository().Add(s.ctx, c))
	s.Require().NoError(uow.Commit(s.ctx))
	return c
}

func (s *UnitOfWorkSuite) TestAddAndGet() {
	o := s.newOrder("F-1", order.OriginBranch, t0)
	s.addOrder(o)

	got, err := s.factory.Create().OrderRepository().Get(s.ctx, o.ID())
	s.Require().NoError(err)
	s.Equal(o.Folio(), got.Folio())
	s.Equal(order.StatePending, got.State())
	s.Equal(1, got.Version())
	s.True(o.Total().Equal(got.Total()))
}

func (s *UnitOfWorkSuite) TestWriteWithoutBegin() {
	err := s.factory.Create().OrderRepository().Add(s.ctx, s.newOrder("F-2", order.OriginBranch, t0))
	s.ErrorIs(err, memory.ErrNoActiveTransaction)
	s.ErrorIs(s.factory.Create().Commit(s.ctx), memory.ErrNoActiveTransaction)
}

func (s *UnitOfWorkSuite) TestRollbackDiscards() {
	o := s.newOrder("F-3", order.OriginBranch, t0)
	uow := s.factory.Create()
	s.Require().NoError(uow.Begin(s.ctx))
	s.Require().NoError(uow.OrderRepository().Add(s.ctx, o))

	_, err := uow.OrderRepository().Get(s.ctx, o.ID())
	s.Require().NoError(err, "staged writes are visible inside the unit of work")

	s.Require().NoError(uow.Rollback(s.ctx))
	_, err = s.factory.Create().OrderRepository().Get(s.ctx, o.ID())
	s.ErrorIs(err, errs.ErrObjectNotFound)
}

func (s *UnitOfWorkSuite) TestUpdateAdvancesVersionAndHistory() {
	o := s.newOrder("F-4", order.OriginBranch, t0)
	s.addOrder(o)

	uow := s.factory.Create()
	s.Require().NoError(uow.Begin(s.ctx))
	loaded, err := uow.OrderRepository().Get(s.ctx, o.ID())
	s.Require().NoError(err)
	_, err = loaded.Execute(order.CommandApprove, order.Payload{}, t0.Add(time.Minute))
	s.Require().NoError(err)
	s.Require().NoError(uow.OrderRepository().Update(s.ctx, loaded))
	s.Equal(2, loaded.Version())
	s.Empty(loaded.PendingHistory())
	s.Require().NoError(uow.Commit(s.ctx))

	history, err := s.factory.Create().OrderRepository().History(s.ctx, o.ID())
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(order.StatePending, history[0].From)
	s.Equal(order.StateApproved, history[0].To)
}

func (s *UnitOfWorkSuite) TestStaleUpdateConflicts() {
	o := s.newOrder("F-5", order.OriginBranch, t0)
	s.addOrder(o)

	first, second := s.factory.Create(), s.factory.Create()
	s.Require().NoError(first.Begin(s.ctx))
	s.Require().NoError(second.Begin(s.ctx))

	a, err := first.OrderRepository().Get(s.ctx, o.ID())
	s.Require().NoError(err)
	b, err := second.OrderRepository().Get(s.ctx, o.ID())
	s.Require().NoError(err)

	_, err = a.Execute(order.CommandApprove, order.Payload{}, t0)
	s.Require().NoError(err)
	_, err = b.Execute(order.CommandReject, order.Payload{Reason: "duplicado"}, t0)
	s.Require().NoError(err)

	s.Require().NoError(first.OrderRepository().Update(s.ctx, a))
	s.Require().NoError(second.OrderRepository().Update(s.ctx, b))
	s.Require().NoError(first.Commit(s.ctx))
	s.ErrorIs(second.Commit(s.ctx), errs.ErrConflict)

	got, err := s.factory.Create().OrderRepository().Get(s.ctx, o.ID())
	s.Require().NoError(err)
	s.Equal(order.StateApproved, got.State())
	s.Equal(2, got.Version())
}

func (s *UnitOfWorkSuite) TestDuplicateFolio() {
	s.addOrder(s.newOrder("F-6", order.OriginBranch, t0))

	uow := s.factory.Create()
	s.Require().NoError(uow.Begin(s.ctx))
	err := uow.OrderRepository().Add(s.ctx, s.newOrder("F-6", order.OriginEcommerce, t0))
	s.ErrorIs(err, errs.ErrConflict)
}

func (s *UnitOfWorkSuite) TestDuplicateFolioRacingAtCommit() {
	first, second := s.factory.Create(), s.factory.Create()
	s.Require().NoError(first.Begin(s.ctx))
	s.Require().NoError(second.Begin(s.ctx))
	s.Require().NoError(first.OrderRepository().Add(s.ctx, s.newOrder("F-7", order.OriginBranch, t0)))
	s.Require().NoError(second.OrderRepository().Add(s.ctx, s.newOrder("F-7", order.OriginBranch, t0)))

	s.Require().NoError(first.Commit(s.ctx))
	s.ErrorIs(second.Commit(s.ctx), errs.ErrConflict)
}

func (s *UnitOfWorkSuite) TestGetMissing() {
	_, err := s.factory.Create().OrderRepository().Get(s.ctx, kernel.NewUUID())
	s.ErrorIs(err, errs.ErrObjectNotFound)
	_, err = s.factory.Create().CourierRepository().Get(s.ctx, kernel.NewUUID())
	s.ErrorIs(err, errs.ErrObjectNotFound)
	_, err = s.factory.Create().OrderRepository().History(s.ctx, kernel.NewUUID())
	s.ErrorIs(err, errs.ErrObjectNotFound)
}

func (s *UnitOfWorkSuite) TestListByFilter() {
	a := s.newOrder("TLM-10", order.OriginTelemarketing, t0.Add(2*time.Minute))
	b := s.newOrder("SUC-11", order.OriginBranch, t0)
	c := s.newOrder("SUC-12", order.OriginBranch, t0.Add(time.Minute))
	for _, o := range []*order.Order{a, b, c} {
		s.addOrder(o)
	}

	repo := s.factory.Create().OrderRepository()
	folios := func(filter ports.OrderFilter) []string {
		list, err := repo.ListByFilter(s.ctx, filter)
		s.Require().NoError(err)
		out := make([]string, 0, len(list))
		for _, o := range list {
			out = append(out, o.Folio())
		}
		return out
	}

	branch := order.OriginBranch
	s.Equal([]string{"SUC-11", "SUC-12", "TLM-10"}, folios(ports.OrderFilter{}))
	s.Equal([]string{"SUC-11", "SUC-12"}, folios(ports.OrderFilter{Origin: &branch}))
	s.Equal([]string{"SUC-11", "SUC-12", "TLM-10"}, folios(ports.OrderFilter{
		Origins: []order.Origin{order.OriginBranch, order.OriginTelemarketing},
	}))
	s.Empty(folios(ports.OrderFilter{Origins: []order.Origin{order.OriginCourier}}))
	s.Equal([]string{"TLM-10"}, folios(ports.OrderFilter{Search: "tlm"}))
	s.Equal([]string{"SUC-11"}, folios(ports.OrderFilter{Limit: 1}))
	s.Empty(folios(ports.OrderFilter{States: []order.State{order.StateEnRoute}}))
	s.Len(folios(ports.OrderFilter{States: []order.State{order.StatePending, order.StateReady}}), 3)
}

func (s *UnitOfWorkSuite) TestCourierClaimAndOrdering() {
	first := s.addCourier("Ana")
	second := s.addCourier("Beto")

	uow := s.factory.Create()
	s.Require().NoError(uow.Begin(s.ctx))
	c, err := uow.CourierRepository().Get(s.ctx, first.ID())
	s.Require().NoError(err)
	orderID := kernel.NewUUID()
	s.Require().NoError(c.Claim(orderID, 3))
	s.Require().NoError(uow.CourierRepository().Update(s.ctx, c))
	s.Require().NoError(uow.Commit(s.ctx))

	all, err := s.factory.Create().CourierRepository().GetAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.True(all[0].ID().Less(all[1].ID()))

	got, err := s.factory.Create().CourierRepository().Get(s.ctx, first.ID())
	s.Require().NoError(err)
	s.True(got.IsHolding(orderID))
	s.Equal(2, got.Version())

	stale, err := courier.RestoreCourier(second.Snapshot())
	s.Require().NoError(err)
	stale.AdvanceVersion()
	late := s.factory.Create()
	s.Require().NoError(late.Begin(s.ctx))
	s.ErrorIs(late.CourierRepository().Update(s.ctx, stale), errs.ErrConflict)
}
