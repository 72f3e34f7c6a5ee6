//go:build unix

package main

import (
	"os"
	"syscall"
)

// triggerSignals start a cycle immediately when delivered to a running agent.
var triggerSignals = []os.Signal{syscall.SIGUSR1}
