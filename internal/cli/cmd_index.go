package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/calvinalkan/fileproc"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/bubu/pkg/bubu"
)

// scannedDoc is one file picked up by the directory scan.
type scannedDoc struct {
	path    string
	content []byte
}

func newIndexCommand(workspace string) *Command {
	flags := flag.NewFlagSet("index", flag.ContinueOnError)
	startID := flags.Uint32("start-id", 1, "Document id assigned to the first file")
	suffix := flags.String("suffix", "", "Only index files with this suffix (e.g. .txt)")

	return &Command{
		Flags: flags,
		Usage: "index <dir> [flags]",
		Short: "Register every file under a directory",
		Long: "Register every file under dir, assigning sequential document\n" +
			"ids in path order starting at --start-id. Empty files are\n" +
			"skipped. Prints \"id path\" per registered file.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errors.New("a directory is required")
			}

			if len(args) > 1 {
				return errTooManyArgs
			}

			docs, err := scanFiles(ctx, args[0], *suffix)
			if err != nil {
				return err
			}

			// The scan is parallel; order by path so id assignment is
			// deterministic across runs.
			sort.Slice(docs, func(i, j int) bool { return docs[i].path < docs[j].path })

			eng, err := bubu.Open(workspace, nil)
			if err != nil {
				return err
			}

			defer func() { _ = eng.Close() }()

			docID := *startID

			for _, doc := range docs {
				if len(doc.content) == 0 {
					continue
				}

				err = ctx.Err()
				if err != nil {
					return fmt.Errorf("index canceled: %w", context.Cause(ctx))
				}

				err = eng.UnregisterDoc(docID)
				if err != nil {
					return err
				}

				err = eng.RegisterDoc(docID, doc.content)
				if err != nil {
					return fmt.Errorf("register %s: %w", doc.path, err)
				}

				o.Printf("%d %s\n", docID, doc.path)
				docID++
			}

			return eng.Close()
		},
	}
}

// scanFiles reads every matching file under root in parallel.
func scanFiles(ctx context.Context, root, suffix string) ([]scannedDoc, error) {
	opts := fileproc.Options{
		Recursive: true,
		Suffix:    suffix,
		OnError: func(error, int, int) bool {
			return true
		},
	}

	results, errs := fileproc.ProcessStat(ctx, root, func(path []byte, _ fileproc.Stat, f fileproc.LazyFile) (*scannedDoc, error) {
		content, err := io.ReadAll(f)
		if err != nil {
			return nil, err
		}

		return &scannedDoc{path: string(path), content: content}, nil
	}, opts)

	if len(errs) > 0 {
		return nil, fmt.Errorf("scan %s: %w", root, errors.Join(errs...))
	}

	docs := make([]scannedDoc, 0, len(results))
	for _, r := range results {
		docs = append(docs, r.Value)
	}

	return docs, nil
}
