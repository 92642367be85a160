package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	if err == nil {
		return
	}

	var coded *exitCodeError
	if errors.As(err, &coded) {
		if coded.message != "" {
			fmt.Fprintln(os.Stderr, coded.message)
		}
		os.Exit(coded.code)
	}
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}

// exitCodeError carries a specific process exit code through cobra's error
// return. The exit-code table is part of the external contract, so plain
// exit(1) is not enough.
type exitCodeError struct {
	code    int
	message string
}

func (e *exitCodeError) Error() string {
	return e.message
}

func exitWithCode(code int, message string) error {
	return &exitCodeError{code: code, message: message}
}
