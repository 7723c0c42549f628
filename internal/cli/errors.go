package cli

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	errTooManyArgs = errors.New("too many arguments")
	errDocIDArg    = errors.New("a document id is required")
)

// parseDocID parses a decimal uint32 document id argument.
func parseDocID(arg string) (uint32, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid document id %q: %w", arg, err)
	}

	return uint32(id), nil
}
