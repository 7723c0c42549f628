package cli

import (
	"context"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command defines a CLI command with unified help generation.
type Command struct {
	// Flags defines command-specific flags.
	// The FlagSet name is not used - command identity comes from Usage.
	Flags *flag.FlagSet

	// Usage is the freeform usage string shown after "bubu" in help.
	// Includes the command name and arguments/flags.
	// Examples: "register <id> [file]", "search <query> [flags]"
	Usage string

	// Short is a one-line description for the global help listing.
	Short string

	// Long is the full description shown in command help.
	// If empty, Short is used instead.
	Long string

	// Exec runs the command after flags are parsed.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the short help line for the main usage display.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-26s %s", c.Usage, c.Short)
}

// PrintHelp prints the full help output for "bubu <cmd> --help".
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: bubu", c.Usage)
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")
		o.Printf("%s", c.Flags.FlagUsages())
	}
}

// Run parses flags and executes the command.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	if c.Flags == nil {
		c.Flags = flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	}

	c.Flags.Usage = func() {}
	c.Flags.SetOutput(&strings.Builder{})

	showHelp := c.Flags.BoolP("help", "h", false, "Show help")

	err := c.Flags.Parse(args)
	if err != nil {
		o.Errorln("error:", err)
		c.PrintHelp(o)

		return 1
	}

	if *showHelp {
		c.PrintHelp(o)

		return 0
	}

	err = c.Exec(ctx, o, c.Flags.Args())
	if err != nil {
		o.Errorln("error:", err)

		return 1
	}

	return 0
}
