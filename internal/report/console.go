package report

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/syntrixbase/schemasync/internal/provision"
)

// ConsoleReporter prints a summary table when the run finishes. Other
// events are ignored.
type ConsoleReporter struct {
	writer io.Writer

	bold, green, yellow, red *color.Color
}

// NewConsoleReporter creates a console reporter writing to w.
func NewConsoleReporter(w io.Writer, colors bool) *ConsoleReporter {
	r := &ConsoleReporter{
		writer: w,
		bold:   color.New(color.Bold),
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed),
	}
	for _, c := range []*color.Color{r.bold, r.green, r.yellow, r.red} {
		if colors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func (r *ConsoleReporter) Report(_ context.Context, e provision.Event) {
	if e.Kind == provision.EventRunFinished && e.Summary != nil {
		r.ReportSummary(e.Summary)
	}
}

// ReportSummary renders s.
func (r *ConsoleReporter) ReportSummary(s *provision.Summary) {
	w := r.writer

	fmt.Fprintln(w)
	fmt.Fprintln(w, r.bold.Sprintf("Schema provisioning: %s (catalog %s, fingerprint %s)", s.DatabaseID, s.Catalog, s.Fingerprint))
	fmt.Fprintf(w, "  Database:    %s\n", r.status(s.Database))
	fmt.Fprintf(w, "  Bucket:      %s\n", r.bucket(s.Bucket))
	fmt.Fprintf(w, "  Duration:    %s\n", s.Duration().Round(time.Millisecond))
	fmt.Fprintln(w)

	if len(s.Collections) > 0 {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Collection", "Status", "Attributes", "Indexes", "Not ready"})
		table.SetAutoFormatHeaders(false)
		table.SetAutoWrapText(false)
		table.SetAlignment(tablewriter.ALIGN_LEFT)

		for i := range s.Collections {
			c := &s.Collections[i]
			table.Append([]string{
				c.ID,
				string(c.Outcome.Status),
				tally(c.Attributes),
				tally(c.Indexes),
				strings.Join(c.NotReady, ", "),
			})
		}

		attrs, idx := s.AttributeCounts(), s.IndexCounts()
		table.SetFooter([]string{
			strconv.Itoa(s.CollectionsAttempted()) + " collections",
			"",
			fmt.Sprintf("%d (%d/%d/%d)", s.AttributesAttempted(), attrs.Created, attrs.AlreadyExists, attrs.Failed),
			fmt.Sprintf("%d (%d/%d/%d)", s.IndexesAttempted(), idx.Created, idx.AlreadyExists, idx.Failed),
			"",
		})
		table.Render()
		fmt.Fprintln(w, "  counts are created/already_exists/failed")
		fmt.Fprintln(w)
	}

	if failures := s.Failures(); len(failures) > 0 {
		fmt.Fprintln(w, r.red.Sprintf("Failed (%d):", len(failures)))
		for _, f := range failures {
			fmt.Fprintf(w, "  - %s\n", f)
		}
		fmt.Fprintln(w)
	}

	if s.Fatal != "" {
		fmt.Fprintln(w, r.red.Sprint("Aborted: "+s.Fatal))
		return
	}
	fmt.Fprintln(w, r.green.Sprintf("Done: %d collections, %d attributes, %d indexes attempted.",
		s.CollectionsAttempted(), s.AttributesAttempted(), s.IndexesAttempted()))
}

func (r *ConsoleReporter) status(o provision.Outcome) string {
	switch o.Status {
	case provision.StatusCreated:
		return r.green.Sprint(o.Status)
	case provision.StatusAlreadyExists:
		return string(o.Status)
	case provision.StatusFailed:
		return r.red.Sprintf("%s: %s", o.Status, o.Reason)
	}
	return "not reached"
}

func (r *ConsoleReporter) bucket(b provision.BucketCheck) string {
	if b.Found {
		return b.ID + " " + r.green.Sprint("found")
	}
	if b.Reason == "" {
		return b.ID + " not checked"
	}
	return r.yellow.Sprint("warning: " + b.Reason)
}

// tally formats created/already_exists/failed for a collection's entities.
func tally(results []provision.EntityResult) string {
	var created, existing, failed int
	for _, res := range results {
		switch res.Outcome.Status {
		case provision.StatusCreated:
			created++
		case provision.StatusAlreadyExists:
			existing++
		case provision.StatusFailed:
			failed++
		}
	}
	return fmt.Sprintf("%d/%d/%d", created, existing, failed)
}
