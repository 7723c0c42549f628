package cli

import (
	"context"
	"fmt"

	"github.com/calvinalkan/bubu/pkg/bubu"
)

func newShowCommand(workspace string) *Command {
	return &Command{
		Usage: "show <id>",
		Short: "Print a document's stored content",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errDocIDArg
			}

			if len(args) > 1 {
				return errTooManyArgs
			}

			docID, err := parseDocID(args[0])
			if err != nil {
				return err
			}

			eng, err := bubu.Open(workspace, nil)
			if err != nil {
				return err
			}

			defer func() { _ = eng.Close() }()

			content, err := eng.GetDocContent(docID)
			if err != nil {
				return err
			}

			if len(content) == 0 {
				return fmt.Errorf("document %d is not registered", docID)
			}

			o.Printf("%s", content)

			return nil
		},
	}
}
