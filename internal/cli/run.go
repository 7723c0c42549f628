package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
)

// DefaultWorkspace is used when neither --workspace nor BUBU_WORKSPACE
// names a directory.
const DefaultWorkspace = "."

// Run is the main entry point. Returns exit code.
// sigCh can be nil if signal handling is not needed (e.g., in tests).
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globalFlags := flag.NewFlagSet("bubu", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.Usage = func() {}
	globalFlags.SetOutput(&strings.Builder{})
	flagHelp := globalFlags.BoolP("help", "h", false, "Show help")
	flagCwd := globalFlags.StringP("cwd", "C", "", "Run as if started in `dir`")
	flagWorkspace := globalFlags.StringP("workspace", "w", "", "Workspace `directory` (default $BUBU_WORKSPACE or .)")

	err := globalFlags.Parse(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)
		printGlobalOptions(errOut)

		return 1
	}

	workspace := *flagWorkspace
	if workspace == "" {
		workspace = env["BUBU_WORKSPACE"]
	}

	if workspace == "" {
		workspace = DefaultWorkspace
	}

	if *flagCwd != "" && !filepath.IsAbs(workspace) {
		workspace = filepath.Join(*flagCwd, workspace)
	}

	commands := allCommands(workspace, in)

	commandMap := make(map[string]*Command, len(commands))
	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
	}

	commandAndArgs := globalFlags.Args()

	// Show help: explicit --help or bare `bubu` with no args
	if *flagHelp || len(commandAndArgs) == 0 {
		w := out
		if !*flagHelp && len(commandAndArgs) == 0 {
			w = errOut
		}

		printUsage(w, commands)

		if *flagHelp {
			return 0
		}

		return 1
	}

	cmdName := commandAndArgs[0]

	cmd, ok := commandMap[cmdName]
	if !ok {
		fprintln(errOut, "error: unknown command:", cmdName)
		printUsage(errOut, commands)

		return 1
	}

	cmdIO := NewIO(out, errOut)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run command in goroutine so we can handle signals
	done := make(chan int, 1)

	go func() {
		done <- cmd.Run(ctx, cmdIO, commandAndArgs[1:])
	}()

	select {
	case exitCode := <-done:
		return exitCode
	case <-sigCh:
		fprintln(errOut, "shutting down with 5s timeout...")
		cancel()
	}

	select {
	case exitCode := <-done:
		return exitCode
	case <-time.After(5 * time.Second):
		fprintln(errOut, "error: shutdown timed out")

		return 1
	case <-sigCh:
		fprintln(errOut, "error: aborted")

		return 1
	}
}

func allCommands(workspace string, in io.Reader) []*Command {
	return []*Command{
		newCreateCommand(workspace),
		newRegisterCommand(workspace, in),
		newUnregisterCommand(workspace),
		newShowCommand(workspace),
		newSearchCommand(workspace),
		newIndexCommand(workspace),
		newStatsCommand(workspace),
	}
}

func printUsage(w io.Writer, commands []*Command) {
	fprintln(w, "Usage: bubu [global flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Commands:")

	for _, cmd := range commands {
		fprintln(w, cmd.HelpLine())
	}

	fprintln(w)
	printGlobalOptions(w)
}

func printGlobalOptions(w io.Writer) {
	fprintln(w, "Global flags:")
	fprintln(w, "  -C, --cwd dir              Run as if started in dir")
	fprintln(w, "  -w, --workspace directory  Workspace directory (default $BUBU_WORKSPACE or .)")
	fprintln(w, "  -h, --help                 Show help")
}
