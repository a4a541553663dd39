package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/sdrclassifier/internal/dataset"
	"github.com/fyrsmithlabs/sdrclassifier/internal/sdr"
	"github.com/fyrsmithlabs/sdrclassifier/internal/spatial"
)

// maxSDRIndices is how many indices FormatSDR shows before truncating.
const maxSDRIndices = 12

// FormatSimilarity formats a percentage as "X.XX%".
func FormatSimilarity(pct float64) string {
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatScore formats a score as "hits/total (X.X%)", or "-" when nothing
// was scored.
func FormatScore(s dataset.Score) string {
	if s.Total == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d (%.1f%%)", s.Hits, s.Total, s.Accuracy())
}

// FormatSDR joins indices with ", ", truncating long SDRs.
func FormatSDR(s sdr.SDR) string {
	if len(s) <= maxSDRIndices {
		return sdr.String(s)
	}
	return fmt.Sprintf("%s, ... (+%d)", sdr.String(s[:maxSDRIndices]), len(s)-maxSDRIndices)
}

// FormatFrame formats a frame as "(tlx,tly)-(brx,bry)".
func FormatFrame(f spatial.Frame) string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", f.TLX, f.TLY, f.BRX, f.BRY)
}

// FormatDuration formats short durations as "X.Xms" and longer ones as
// "X.Xs".
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// FormatLabels joins labels, or returns "(none)".
func FormatLabels(labels []string) string {
	if len(labels) == 0 {
		return "(none)"
	}
	return strings.Join(labels, ", ")
}
