package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/codyspate/tool-locker/internal/errmsg"
)

// Exit codes let scripts distinguish tlk failure modes.
const (
	ExitSuccess    = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitNetwork    = 3
	ExitIntegrity  = 4
	ExitResolution = 5
	ExitLock       = 6
	ExitCancelled  = 130
)

func exitWithCode(code int) {
	os.Exit(code)
}

// fail prints err using errmsg's formatting and exits with a code
// appropriate to its kind.
func fail(err error) {
	fmt.Fprintln(os.Stderr, errmsg.Format(err))

	var netErr *errmsg.NetworkError
	if errors.As(err, &netErr) {
		exitWithCode(ExitNetwork)
	}
	var integrityErr *errmsg.IntegrityError
	if errors.As(err, &integrityErr) {
		exitWithCode(ExitIntegrity)
	}
	var resolutionErr *errmsg.ResolutionError
	if errors.As(err, &resolutionErr) {
		exitWithCode(ExitResolution)
	}
	var lockErr *errmsg.LockError
	if errors.As(err, &lockErr) {
		exitWithCode(ExitLock)
	}
	exitWithCode(ExitGeneral)
}
