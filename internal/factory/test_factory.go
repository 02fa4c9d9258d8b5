package factory

import (
	"github.com/mcoot/pokersignup/internal/dependencies/mocks"
	"github.com/mcoot/pokersignup/internal/services/auth"
	"github.com/mcoot/pokersignup/internal/storage/memory"
	"github.com/mcoot/pokersignup/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	MockIDs   *mocks.MockIDs
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Usernames in admins are granted admin rights on registration.
func NewTestApp(admins ...string) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(testutil.Epoch)
	mockIDs := mocks.NewMockIDs()

	authCfg := auth.DefaultConfig()
	authCfg.AdminUsernames = admins

	app := newWithDependencies(store, mockClock, mockIDs, authCfg, testutil.NopLogger())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		MockIDs:   mockIDs,
	}
}
