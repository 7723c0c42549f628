package cli

import (
	"context"

	"github.com/calvinalkan/bubu/pkg/bubu"
	"github.com/calvinalkan/bubu/pkg/recordstore"
)

func newStatsCommand(workspace string) *Command {
	return &Command{
		Usage: "stats",
		Short: "Print store statistics for the workspace",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) != 0 {
				return errTooManyArgs
			}

			eng, err := bubu.Open(workspace, nil)
			if err != nil {
				return err
			}

			defer func() { _ = eng.Close() }()

			stats, err := eng.Stats()
			if err != nil {
				return err
			}

			printStoreStats(o, "index", stats.Index)
			printStoreStats(o, "library", stats.Library)

			return nil
		},
	}
}

func printStoreStats(o *IO, name string, s recordstore.Stats) {
	o.Printf("%s:\n", name)
	o.Printf("  buckets:            %d\n", s.BucketLength)
	o.Printf("  free pool capacity: %d\n", s.FreePoolLength)
	o.Printf("  free areas:         %d\n", s.FreeAreas)
	o.Printf("  dropped free areas: %d\n", s.DroppedFreeAreas)
	o.Printf("  file size:          %d\n", s.FileSize)
}
