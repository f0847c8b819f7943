package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
)

// errReported wraps errors whose message was already shown to the user.
var errReported = errors.New("reported")

func reported(err error) error {
	return fmt.Errorf("%w: %w", errReported, err)
}

func printSuccess(format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(stdout, format+"\n", args...)
}

func printError(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(stderr, format+"\n", args...)
}

func printWarning(format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(stderr, format+"\n", args...)
}

func printInfo(format string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(stdout, format+"\n", args...)
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		printError("Failed to encode output: %v", err)
		return
	}
	fmt.Fprintln(stdout, string(data))
}
