package pgnotify_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/adapters/out/events"
	"dispatch/internal/adapters/out/postgres/pgnotify"
	"dispatch/internal/adapters/out/postgres/pgtest"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const channel = "dispatch_events_test"

type RelayTestSuite struct {
	suite.Suite
	db *pgtest.Database
}

func TestRelayTestSuite(t *testing.T) {
	suite.Run(t, new(RelayTestSuite))
}

func (suite *RelayTestSuite) SetupSuite() {
	if testing.Short() {
		suite.T().Skip("integration test: requires docker")
	}
	db, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.db = db
}

func (suite *RelayTestSuite) TearDownSuite() {
	if suite.db != nil {
		suite.Require().NoError(suite.db.Terminate(context.Background()))
	}
}

func (suite *RelayTestSuite) TestForwardsOtherInstancesOnly() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broadcaster := events.NewBroadcaster(8, nil)
	defer broadcaster.Close()
	received, unsubscribe := broadcaster.Subscribe()
	defer unsubscribe()

	core, logs := observer.New(zap.InfoLevel)
	relay := pgnotify.NewRelay(suite.db.DSN, channel, "instance-b", broadcaster, zap.New(core))
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	suite.Require().Eventually(func() bool {
		return logs.FilterMessage("relay listening").Len() == 1
	}, 10*time.Second, 50*time.Millisecond)

	own := pgnotify.NewPublisher(suite.db.DB, channel, "instance-b")
	other := pgnotify.NewPublisher(suite.db.DB, channel, "instance-a")

	skipped := order.StateChanged{
		EventID: kernel.NewUUID(), OrderID: kernel.NewUUID(), Folio: "F-1",
		From: order.StatePending, To: order.StateApproved, Command: order.CommandApprove,
		Version: 2, OccurredAt: time.Now().UTC(),
	}
	forwarded := skipped
	forwarded.EventID = kernel.NewUUID()
	forwarded.Folio = "F-2"

	suite.Require().NoError(own.Publish(ctx, skipped))
	suite.Require().NoError(other.Publish(ctx, forwarded))

	select {
	case got := <-received:
		suite.True(got.EventID.IsEqual(forwarded.EventID))
		suite.Equal("F-2", got.Folio)
		suite.Equal(order.StateApproved, got.To)
	case <-time.After(10 * time.Second):
		suite.Fail("relayed event not received")
	}

	cancel()
	suite.NoError(<-done)
	suite.Empty(received)
}
