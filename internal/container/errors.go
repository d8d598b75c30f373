package container

import "strings"

// InitializationError is returned by Build when a required service is nil
type InitializationError struct {
	MissingDeps []string
}

func (e *InitializationError) Error() string {
	return "cannot build petfeed services without " + strings.Join(e.MissingDeps, " and ")
}
