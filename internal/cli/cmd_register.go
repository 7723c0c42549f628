package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/calvinalkan/bubu/pkg/bubu"
)

func newRegisterCommand(workspace string, in io.Reader) *Command {
	return &Command{
		Usage: "register <id> [file]",
		Short: "Register a document",
		Long: "Register a document under the given id, reading its content\n" +
			"from file (or stdin when file is omitted or \"-\").\n" +
			"Re-registering an id replaces the previous content.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errDocIDArg
			}

			if len(args) > 2 {
				return errTooManyArgs
			}

			docID, err := parseDocID(args[0])
			if err != nil {
				return err
			}

			content, err := readContent(in, args[1:])
			if err != nil {
				return err
			}

			if len(content) == 0 {
				return errors.New("document content is empty")
			}

			eng, err := bubu.Open(workspace, nil)
			if err != nil {
				return err
			}

			defer func() { _ = eng.Close() }()

			// Replace semantics: drop any previous content for this id
			// before indexing the new content.
			err = eng.UnregisterDoc(docID)
			if err != nil {
				return err
			}

			err = eng.RegisterDoc(docID, content)
			if err != nil {
				return err
			}

			o.Printf("registered %d (%d bytes)\n", docID, len(content))

			return eng.Close()
		},
	}
}

func readContent(in io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		content, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}

		return content, nil
	}

	content, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}

	return content, nil
}
