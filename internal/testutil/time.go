package testutil

import "time"

// Epoch is the fixed "now" used by tests that drive a mock clock
var Epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
