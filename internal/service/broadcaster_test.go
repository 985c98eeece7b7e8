package service_test

import (
	"testing"

	"github.com/bicoltravel/btg-cli/internal/service"
	iface "github.com/bicoltravel/btg-cli/internal/service/interface"
	"github.com/stretchr/testify/assert"
)

func TestBroadcaster_StartsLoggedOut(t *testing.T) {
	b := service.NewBroadcaster()
	assert.Equal(t, iface.Session{State: iface.StateLoggedOut}, b.Snapshot())
}

func TestBroadcaster_DeliversInOrder(t *testing.T) {
	b := service.NewBroadcaster()

	var first, second []iface.SessionState
	b.Subscribe(func(s iface.Session) { first = append(first, s.State) })
	b.Subscribe(func(s iface.Session) { second = append(second, s.State) })

	b.Publish(iface.Session{State: iface.StatePending})
	b.Publish(iface.Session{State: iface.StateAuthenticated, Identity: &iface.Identity{Username: "juan"}})
	b.Publish(iface.Session{State: iface.StateLoggedOut})

	want := []iface.SessionState{iface.StatePending, iface.StateAuthenticated, iface.StateLoggedOut}
	assert.Equal(t, want, first)
	assert.Equal(t, want, second)
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := service.NewBroadcaster()

	var kept, dropped int
	b.Subscribe(func(iface.Session) { kept++ })
	sub := b.Subscribe(func(iface.Session) { dropped++ })

	b.Publish(iface.Session{State: iface.StatePending})
	b.Unsubscribe(sub)
	b.Unsubscribe(sub)
	b.Unsubscribe(iface.Subscription(42))
	b.Publish(iface.Session{State: iface.StateLoggedOut})

	assert.Equal(t, 2, kept)
	assert.Equal(t, 1, dropped)
}

func TestBroadcaster_SnapshotInsideHandler(t *testing.T) {
	b := service.NewBroadcaster()

	var seen []iface.Session
	b.Subscribe(func(iface.Session) { seen = append(seen, b.Snapshot()) })

	published := iface.Session{State: iface.StateAuthenticated, Identity: &iface.Identity{Username: "juan"}, AccessToken: "A1"}
	b.Publish(published)

	assert.Equal(t, []iface.Session{published}, seen)
	assert.Equal(t, published, b.Snapshot())
}

func TestBroadcaster_SubscribeDuringDelivery(t *testing.T) {
	b := service.NewBroadcaster()

	var late int
	b.Subscribe(func(iface.Session) {
		b.Subscribe(func(iface.Session) { late++ })
	})

	b.Publish(iface.Session{State: iface.StatePending})
	assert.Equal(t, 0, late)

	b.Publish(iface.Session{State: iface.StateLoggedOut})
	assert.Equal(t, 1, late)
}
