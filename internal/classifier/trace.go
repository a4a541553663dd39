package classifier

import (
	"fmt"
	"io"
	"strings"

	"github.com/fyrsmithlabs/sdrclassifier/internal/sdr"
)

// cellStateHeader separates the latest-SDR section from the full history.
const cellStateHeader = "........... Cell State ............."

// TraceState renders every label with its most recent SDR, then every label
// with its full history. When w is not nil the text is also written to it.
// The dump is for people; nothing parses it.
func (c *Classifier[L]) TraceState(w io.Writer) (string, error) {
	var b strings.Builder
	labels := c.history.Labels()

	for _, label := range labels {
		last, err := c.history.Last(label)
		if err != nil {
			return "", fmt.Errorf("tracing %v: %w", label, err)
		}
		fmt.Fprintf(&b, "\n%v\n%s\n", label, sdr.String(last))
	}

	b.WriteString(cellStateHeader + "\n")

	for _, label := range labels {
		entries, err := c.history.Entries(label)
		if err != nil {
			return "", fmt.Errorf("tracing %v: %w", label, err)
		}
		fmt.Fprintf(&b, "\n%v\n", label)
		for _, e := range entries {
			b.WriteString(sdr.String(e) + "\n")
		}
	}

	out := b.String()
	if w != nil {
		if _, err := io.WriteString(w, out); err != nil {
			return out, fmt.Errorf("writing trace: %w", err)
		}
	}
	return out, nil
}
