package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/ancients-collective/guardrail/internal/engine"
)

// printSuggestions lists the services closest to input by edit distance.
func printSuggestions(w io.Writer, input string, services []string) {
	suggestions := engine.Suggest(input, services)
	if len(suggestions) == 0 {
		return
	}
	fmt.Fprintf(w, "\n  Did you mean:\n")
	for _, s := range suggestions {
		fmt.Fprintf(w, "    • %s\n", s)
	}
	fmt.Fprintln(w)
}

// printConfigSuggestions expands a config error's single suggestion into the
// full did-you-mean list.
func printConfigSuggestions(w io.Writer, err error, services []string) {
	var cfgErr *engine.ConfigValidationError
	if !errors.As(err, &cfgErr) {
		return
	}
	printSuggestions(w, cfgErr.Value, services)
}
