package cli

import "fmt"

// ExitError carries the process exit code for a run that did not fully succeed.
type ExitError struct {
	Code   int
	Status string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("run finished with status %s", e.Status)
}
