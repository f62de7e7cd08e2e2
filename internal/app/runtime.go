package app

import "os"

const testModeEnv = "KASSA_TEST_MODE"

// InTestMode reports whether KASSA_TEST_MODE=1. The binaries return before
// opening any connection when it is set.
func InTestMode() bool {
	return os.Getenv(testModeEnv) == "1"
}
