// Package utils contains helpers shared by the command line tools.
package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/mattn/go-isatty"
)

// Fatalf formats a message to standard error and exits the program.
// The message is also printed to standard output if standard error
// is redirected to a different file.
func Fatalf(format string, args ...interface{}) {
	w := io.MultiWriter(os.Stdout, os.Stderr)
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		}
	}
	fmt.Fprintf(w, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}

// MustPrintJSON prints the JSON encoding of the given object and exits
// the program with an error message when marshaling fails.
func MustPrintJSON(jsonObject interface{}) {
	str, err := json.MarshalIndent(jsonObject, "", "  ")
	if err != nil {
		Fatalf("Failed to marshal JSON object: %v", err)
	}
	fmt.Println(string(str))
}

// IsTTY reports whether the file is an interactive terminal.
func IsTTY(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
