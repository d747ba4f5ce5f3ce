package seed

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Question is the interactive prompt shown in ask mode.
const Question = "Insert sample data? (y/N)"

// Confirm writes question to w and reads one line from r. Only "y" or "yes"
// (any case) accept; anything else, including EOF, declines.
func Confirm(r io.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s: ", question)

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(w)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
