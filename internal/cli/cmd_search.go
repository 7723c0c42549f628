package cli

import (
	"context"
	"fmt"

	"github.com/mattn/go-runewidth"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/bubu/pkg/bubu"
)

func newSearchCommand(workspace string) *Command {
	flags := flag.NewFlagSet("search", flag.ContinueOnError)
	snippets := flags.BoolP("snippets", "s", false, "Show a content snippet per hit")
	snippetContext := flags.Uint("context", 10, "Characters of context around each snippet")

	return &Command{
		Flags: flags,
		Usage: "search <query> [flags]",
		Short: "Find documents containing the query",
		Long: "Find documents containing the query as a contiguous phrase.\n" +
			"Each hit is printed as \"id:position\"; positions count\n" +
			"characters from the start of the document.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("a query is required")
			}

			if len(args) > 1 {
				return errTooManyArgs
			}

			query := args[0]

			eng, err := bubu.Open(workspace, nil)
			if err != nil {
				return err
			}

			defer func() { _ = eng.Close() }()

			hits, err := eng.Search(query)
			if err != nil {
				return err
			}

			if !*snippets {
				for _, h := range hits {
					o.Printf("%d:%d\n", h.DocID, h.Pos)
				}

				return nil
			}

			queryLen := len([]rune(query))

			for _, h := range hits {
				content, err := eng.GetDocContent(h.DocID)
				if err != nil {
					return err
				}

				label := fmt.Sprintf("%d:%d", h.DocID, h.Pos)
				o.Println(runewidth.FillRight(label, 14), snippet(content, h.Pos, queryLen, *snippetContext))
			}

			return nil
		},
	}
}

// snippet extracts the characters around a hit. pos and queryLen count
// characters the way the index does; contextChars are added on each side,
// clamped to the document.
func snippet(content []byte, pos uint32, queryLen int, contextChars uint) string {
	runes := []rune(string(content))

	start := int(pos) - int(contextChars)
	if start < 0 {
		start = 0
	}

	end := int(pos) + queryLen + int(contextChars)
	if end > len(runes) {
		end = len(runes)
	}

	if start >= end {
		return ""
	}

	return string(runes[start:end])
}
