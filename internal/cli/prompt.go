package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rshade/bytecarbon/internal/greenops"
	"github.com/rshade/bytecarbon/internal/tui"
)

// PromptResult contains the result of a user prompt interaction.
type PromptResult struct {
	// Accepted is true if the user typed "y" or "yes".
	Accepted bool
	// Skipped is true when no prompt was shown because input is not a terminal.
	Skipped bool
	// Cancelled is true if reading input failed.
	Cancelled bool
}

// isTerminal is replaced in tests.
var isTerminal = tui.IsTTY //nolint:gochecknoglobals // Test seam for TTY detection

// ConfirmSubmission asks the user to confirm sending a record to endpoint.
// It returns immediately with Skipped=true in non-interactive (non-TTY)
// environments; the caller decides whether that counts as acceptance.
//
// The prompt defaults to "No" when the user presses Enter without input.
func ConfirmSubmission(
	writer io.Writer,
	reader io.Reader,
	participantID string,
	totalKg float64,
	endpoint string,
) PromptResult {
	if !isTerminal() {
		return PromptResult{Skipped: true}
	}

	fmt.Fprintf(writer, "\nSubmitting participant %s (%s) to %s.\n",
		participantID, greenops.FormatKg(totalKg, 2), endpoint)
	fmt.Fprint(writer, "? Send this record? [y/N] ")

	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() {
		if scanner.Err() != nil {
			return PromptResult{Cancelled: true}
		}
		// EOF without error (Ctrl+D) declines.
		return PromptResult{}
	}

	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return PromptResult{Accepted: true}
	default:
		return PromptResult{}
	}
}
