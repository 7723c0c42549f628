package cli

import (
	"context"

	"github.com/calvinalkan/bubu/pkg/bubu"
)

func newUnregisterCommand(workspace string) *Command {
	return &Command{
		Usage: "unregister <id>",
		Short: "Remove a document from the workspace",
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

			err = eng.UnregisterDoc(docID)
			if err != nil {
				return err
			}

			o.Println("unregistered", docID)

			return eng.Close()
		},
	}
}
