package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/bicoltravel/btg-cli/internal/di"
	iface "github.com/bicoltravel/btg-cli/internal/service/interface"
	"github.com/stretchr/testify/require"
)

// MockAuthService is a mock implementation of iface.AuthService
type MockAuthService struct {
	BootstrapFunc func(ctx context.Context) (iface.Session, error)
	LoginFunc     func(ctx context.Context, username, password string) (iface.Session, error)
	RegisterFunc  func(ctx context.Context, input *iface.RegisterInput) error
	LogoutFunc    func(ctx context.Context)

	logoutCalls int
}

func (m *MockAuthService) Bootstrap(ctx context.Context) (iface.Session, error) {
	if m.BootstrapFunc != nil {
		return m.BootstrapFunc(ctx)
	}
	return iface.Session{State: iface.StateLoggedOut}, nil
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (iface.Session, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password)
	}
	return authenticated(iface.RoleTourist), nil
}

func (m *MockAuthService) Register(ctx context.Context, input *iface.RegisterInput) error {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, input)
	}
	return nil
}

func (m *MockAuthService) Logout(ctx context.Context) {
	m.logoutCalls++
	if m.LogoutFunc != nil {
		m.LogoutFunc(ctx)
	}
}

func (m *MockAuthService) Snapshot() iface.Session {
	return iface.Session{State: iface.StateLoggedOut}
}

func (m *MockAuthService) Subscribe(handler func(iface.Session)) iface.Subscription {
	return 1
}

func (m *MockAuthService) Unsubscribe(sub iface.Subscription) {}

// MockSpotService is a mock implementation of iface.SpotService
type MockSpotService struct {
	ListSpotsFunc func(ctx context.Context) ([]iface.Spot, error)
	GetSpotFunc   func(ctx context.Context, id int64) (*iface.Spot, error)
}

func (m *MockSpotService) ListSpots(ctx context.Context) ([]iface.Spot, error) {
	if m.ListSpotsFunc != nil {
		return m.ListSpotsFunc(ctx)
	}
	return nil, nil
}

func (m *MockSpotService) GetSpot(ctx context.Context, id int64) (*iface.Spot, error) {
	if m.GetSpotFunc != nil {
		return m.GetSpotFunc(ctx, id)
	}
	return nil, nil
}

func authenticated(role iface.Role) iface.Session {
	return iface.Session{
		State:       iface.StateAuthenticated,
		Identity:    &iface.Identity{Username: "juan", Email: "juan@example.com", Role: role},
		AccessToken: "A1",
	}
}

// execute runs the CLI with args against container and returns what it
// printed to stdout
func execute(t *testing.T, container *di.Container, stdin string, args ...string) (string, error) {
	t.Helper()

	root := NewRootCommand()
	root.SetContainer(container)
	root.Command().SetArgs(args)
	root.Command().SetIn(strings.NewReader(stdin))

	// Capture stdout
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	runErr := root.Command().Execute()

	// Restore stdout and read output
	w.Close()
	os.Stdout = oldStdout
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)

	return buf.String(), runErr
}
