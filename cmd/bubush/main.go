// bubush is an interactive shell over a bubu search workspace.
//
// Usage:
//
//	bubush <workspace-dir>          Open an existing workspace
//	bubush -c <workspace-dir>       Create the workspace first
//
// Commands (in REPL):
//
//	reg <id> <text...>     Register (or replace) a document
//	unreg <id>             Unregister a document
//	get <id>               Print a document's content
//	search <query>         Find documents containing the query
//	stats                  Show store statistics
//	help                   Show this help
//	exit / quit / q        Exit
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/bubu/pkg/bubu"
)

const replHelp = `Commands:
  reg <id> <text...>   Register (or replace) a document
  unreg <id>           Unregister a document
  get <id>             Print a document's content
  search <query>       Find documents containing the query
  stats                Show store statistics
  help                 Show this help
  exit / quit / q      Exit`

func main() {
	err := run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	flags := flag.NewFlagSet("bubush", flag.ContinueOnError)
	create := flags.BoolP("create", "c", false, "Create the workspace before opening it")

	err := flags.Parse(os.Args[1:])
	if err != nil {
		return err
	}

	if flags.NArg() != 1 {
		return errors.New("usage: bubush [-c] <workspace-dir>")
	}

	dir := flags.Arg(0)

	var eng *bubu.Engine

	if *create {
		eng, err = bubu.Create(dir, nil)
	} else {
		eng, err = bubu.Open(dir, nil)
	}

	if err != nil {
		return err
	}

	defer func() { _ = eng.Close() }()

	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	historyPath := filepath.Join(os.TempDir(), ".bubush_history")
	if f, err := os.Open(historyPath); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}

	defer func() {
		if f, err := os.Create(historyPath); err == nil {
			_, _ = line.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Printf("bubush: workspace %s (type 'help' for commands)\n", dir)

	for {
		input, err := line.Prompt("bubu> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return eng.Close()
			}

			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		if input == "exit" || input == "quit" || input == "q" {
			return eng.Close()
		}

		err = dispatch(eng, input)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}
}

func dispatch(eng *bubu.Engine, input string) error {
	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "help":
		fmt.Println(replHelp)

		return nil

	case "reg":
		idArg, text, _ := strings.Cut(rest, " ")

		docID, err := parseDocID(idArg)
		if err != nil {
			return err
		}

		if text == "" {
			return errors.New("usage: reg <id> <text...>")
		}

		err = eng.UnregisterDoc(docID)
		if err != nil {
			return err
		}

		return eng.RegisterDoc(docID, []byte(text))

	case "unreg":
		docID, err := parseDocID(rest)
		if err != nil {
			return err
		}

		return eng.UnregisterDoc(docID)

	case "get":
		docID, err := parseDocID(rest)
		if err != nil {
			return err
		}

		content, err := eng.GetDocContent(docID)
		if err != nil {
			return err
		}

		if len(content) == 0 {
			return fmt.Errorf("document %d is not registered", docID)
		}

		fmt.Printf("%s\n", content)

		return nil

	case "search":
		if rest == "" {
			return errors.New("usage: search <query>")
		}

		hits, err := eng.Search(rest)
		if err != nil {
			return err
		}

		if len(hits) == 0 {
			fmt.Println("no hits")

			return nil
		}

		for _, h := range hits {
			fmt.Printf("%d:%d\n", h.DocID, h.Pos)
		}

		return nil

	case "stats":
		stats, err := eng.Stats()
		if err != nil {
			return err
		}

		fmt.Printf("index:   %d buckets, %d free areas, %d bytes\n",
			stats.Index.BucketLength, stats.Index.FreeAreas, stats.Index.FileSize)
		fmt.Printf("library: %d buckets, %d free areas, %d bytes\n",
			stats.Library.BucketLength, stats.Library.FreeAreas, stats.Library.FileSize)

		return nil

	default:
		return fmt.Errorf("unknown command %q (type 'help')", cmd)
	}
}

func parseDocID(arg string) (uint32, error) {
	if arg == "" {
		return 0, errors.New("a document id is required")
	}

	var id uint32

	_, err := fmt.Sscanf(arg, "%d", &id)
	if err != nil {
		return 0, fmt.Errorf("invalid document id %q", arg)
	}

	return id, nil
}
