package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// IsInteractive reports whether f is attached to a terminal. Prompts are
// only printed in that case, so piped scripts get clean JSON output.
func IsInteractive(f *os.File) bool {
	return isTerminal(int(f.Fd()))
}

// readLine prints prompt (when interactive) and reads one trimmed line. If
// EOF occurs after some input was read, the partial line is returned.
func readLine(reader *bufio.Reader, w io.Writer, prompt string, interactive bool) (string, error) {
	if interactive {
		if _, err := fmt.Fprint(w, prompt+": "); err != nil {
			return "", err
		}
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// splitPaths splits a comma separated list, dropping empty items.
func splitPaths(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
