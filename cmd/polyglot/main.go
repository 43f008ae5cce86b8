// Command polyglot converts HTML and plain text documents to XLIFF and
// back, converts between XLIFF versions, and manages a translation memory.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/Polyglot/core/sqlite"
	"github.com/FocuswithJustin/Polyglot/internal/config"
	"github.com/FocuswithJustin/Polyglot/internal/logging"
)

const version = "0.4.0"

// Globals are flags accepted by every command.
type Globals struct {
	Config    string `name:"config" short:"c" help:"YAML configuration file (default: $POLYGLOT_CONFIG or .polyglot.yaml)" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Log format (json, text)"`
}

// CLI defines the command-line interface for polyglot.
type CLI struct {
	Globals

	Extract ExtractCmd  `cmd:"" help:"Extract HTML or plain text documents into XLIFF"`
	Merge   MergeCmd    `cmd:"" help:"Write translated documents from XLIFF files"`
	Convert ConvertCmd  `cmd:"" help:"Convert an XLIFF file to another XLIFF version"`
	Info    InfoCmd     `cmd:"" help:"Summarize the files and translation progress of XLIFF documents"`
	Pseudo  PseudoCmd   `cmd:"" help:"Pseudo-translate untranslated segments"`
	TM      TMGroup     `cmd:"" name:"tm" help:"Translation memory operations"`
	Bundle  BundleGroup `cmd:"" help:"Bundle translation files into archives"`
	Version VersionCmd  `cmd:"" help:"Print version information"`
}

// Runtime is bound to every command's Run method.
type Runtime struct {
	Context context.Context
	Config  config.Config
	Stdout  io.Writer
}

// run parses args and executes the selected command.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("polyglot"),
		kong.Description("Polyglot - HTML and text localization through XLIFF"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if err := initLogging(cli.Globals, cfg); err != nil {
		return err
	}

	return kctx.Run(&Runtime{Context: ctx, Config: cfg, Stdout: stdout})
}

func initLogging(g Globals, cfg config.Config) error {
	levelName, formatName := cfg.Log.Level, cfg.Log.Format
	if g.LogLevel != "" {
		levelName = g.LogLevel
	}
	if g.LogFormat != "" {
		formatName = g.LogFormat
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(formatName)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(rt *Runtime) error {
	info := sqlite.GetInfo()
	fmt.Fprintf(rt.Stdout, "polyglot version %s\n", version)
	fmt.Fprintf(rt.Stdout, "sqlite driver %s (%s)\n", info.DriverName, info.Package)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "polyglot: %v\n", err)
		os.Exit(1)
	}
}
