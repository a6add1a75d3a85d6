// Package main is the entry point for guardrail, which turns the built-in
// policy corpus into reviewable initiative documents.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ancients-collective/guardrail/internal/catalog"
	"github.com/ancients-collective/guardrail/internal/engine"
	"github.com/ancients-collective/guardrail/internal/loader"
	"github.com/ancients-collective/guardrail/internal/types"
)

// version is set at build time via -ldflags. The default is a dev fallback
// for plain `go install` or `go run` usage.
var version = "0.1.0"

// Exit codes.
const (
	exitOK      = 0
	exitFatal   = 1
	exitPartial = 2 // completed, but some documents were skipped
)

// defaultPoliciesDir matches the layout of the upstream built-in corpus.
const defaultPoliciesDir = "./policyDefinitions"

// app carries global flag values and shared state for one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	policiesDir string
	configPath  string
	debug       bool
	noColor     bool

	log     *slog.Logger
	partial bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, log: slog.New(slog.DiscardHandler)}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "  ✗ %v\n", err)
		return exitFatal
	}
	if a.partial {
		return exitPartial
	}
	return exitOK
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "guardrail",
		Short: "Build policy initiatives from the built-in policy corpus",
		Long: `guardrail reads a directory of built-in policy definitions (one
sub-directory per service), screens them with a selection config and
assembles initiative documents for a subscription or management group.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.setup()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.policiesDir, "policies", "p", defaultPoliciesDir, "Path to the policy definitions directory")
	pf.StringVarP(&a.configPath, "config", "c", "", "Selection config file (YAML)")
	pf.BoolVar(&a.debug, "debug", false, "Enable debug diagnostic output")
	pf.BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(newListCmd(a))
	root.AddCommand(newGenerateCmd(a))
	root.AddCommand(newValidateCmd(a))
	root.AddCommand(newTemplateCmd(a))
	return root
}

// setup builds the stderr logger and applies --no-color.
func (a *app) setup() {
	level := slog.LevelWarn
	if a.debug {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	if a.noColor {
		color.NoColor = true
	}
}

// loadCatalog reads and normalizes every document under --policies.
// Skipped documents are reported on stderr and mark the run as partial.
func (a *app) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	docs, loadErrs := loader.New().LoadDirectory(a.policiesDir)
	if len(docs) == 0 {
		for _, e := range loadErrs {
			a.warnf("Load error: %v", e)
		}
		return nil, fmt.Errorf("no policy documents found in %s", a.policiesDir)
	}

	cat, buildErrs := catalog.Build(ctx, docs, catalog.WithLogger(a.log))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("interrupted while loading policies: %w", err)
	}

	for _, e := range append(loadErrs, buildErrs...) {
		a.warnf("%v", e)
	}
	if len(loadErrs) > 0 || len(buildErrs) > 0 {
		a.partial = true
	}
	a.log.Debug("policies loaded",
		"dir", a.policiesDir,
		"services", len(cat.ServiceNames()),
		"policies", cat.Len(),
		"malformed", cat.Malformed())
	return cat, nil
}

// loadSelection reads --config, or returns the empty selection when unset.
func (a *app) loadSelection(cat *catalog.Catalog) (*engine.SelectionPolicy, error) {
	opts := engine.Options{}
	if a.configPath != "" {
		var err error
		opts, err = loader.New().LoadConfig(a.configPath)
		if err != nil {
			return nil, err
		}
	}
	policy, err := engine.NewSelectionPolicy(opts, cat.ServiceNames(), engine.WithLogger(a.log))
	if err != nil {
		printConfigSuggestions(a.stderr, err, cat.ServiceNames())
		return nil, err
	}
	return policy, nil
}

// requireService fails with did-you-mean suggestions when name is not a
// service of the catalog.
func (a *app) requireService(cat *catalog.Catalog, name string) error {
	if _, ok := cat.Service(name); ok {
		return nil
	}
	printSuggestions(a.stderr, name, cat.ServiceNames())
	return fmt.Errorf("no service named %q in %s", name, a.policiesDir)
}

func (a *app) warnf(format string, args ...any) {
	fmt.Fprintf(a.stderr, "  %s %s\n", color.YellowString("⚠"), fmt.Sprintf(format, args...))
}

// writeTo writes data to path, or to stdout when path is empty.
func (a *app) writeTo(path string, data []byte) error {
	if path == "" {
		_, err := a.stdout.Write(data)
		return err
	}
	if err := validateOutputPath(path); err != nil {
		return fmt.Errorf("unsafe output path: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// terminalWidth returns the width of stdout when it is a terminal, else 0.
func (a *app) terminalWidth() int {
	f, ok := a.stdout.(*os.File)
	if !ok {
		return 0
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		return w
	}
	return 0
}

// parseParamsFlag parses --params. Empty and "all" select every class.
func parseParamsFlag(raw string) (*types.Cardinality, error) {
	if raw == "" || strings.EqualFold(raw, "all") {
		return nil, nil
	}
	c, err := types.ParseCardinality(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --params value: %w", err)
	}
	return &c, nil
}

// unsafeOutputPrefixes are path prefixes where writing output files is rejected.
var unsafeOutputPrefixes = []string{"/etc/", "/proc/", "/sys/", "/dev/", "/boot/", "/sbin/", "/bin/", "/usr/"}

// validateOutputPath checks that the output file path is safe to write to.
func validateOutputPath(path string) error {
	cleaned := filepath.Clean(path)
	if filepath.IsAbs(cleaned) {
		for _, prefix := range unsafeOutputPrefixes {
			if strings.HasPrefix(cleaned, prefix) {
				return fmt.Errorf("refusing to write to system path %q", cleaned)
			}
		}
	}
	return nil
}
