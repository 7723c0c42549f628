package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/bubu/pkg/bubu"
)

func newCreateCommand(workspace string) *Command {
	flags := flag.NewFlagSet("create", flag.ContinueOnError)
	buckets := flags.Uint32("buckets", bubu.DefaultBucketLength, "Hash bucket count for both stores")
	freePool := flags.Uint32("free-pool", bubu.DefaultFreePoolLength, "Free pool slots for both stores")

	return &Command{
		Flags: flags,
		Usage: "create [flags]",
		Short: "Create a search workspace",
		Long: "Create a search workspace in the workspace directory.\n" +
			"Existing store files are truncated.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) != 0 {
				return errTooManyArgs
			}

			eng, err := bubu.Create(workspace, &bubu.Config{
				BucketLength:   *buckets,
				FreePoolLength: *freePool,
			})
			if err != nil {
				return err
			}

			o.Println("created workspace:", workspace)

			return eng.Close()
		},
	}
}
