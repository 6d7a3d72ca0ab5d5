package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/m-mizutani/convoy/pkg/domain/model"
)

var (
	colorOK   = color.New(color.FgGreen)
	colorNG   = color.New(color.FgRed, color.Bold)
	colorSkip = color.New(color.FgHiBlack)
	colorHead = color.New(color.Bold)
)

func statusColor(s string) *color.Color {
	switch s {
	case string(model.BuildSuccess), string(model.PublishPublished), string(model.PublishAlreadyPresent):
		return colorOK
	case string(model.BuildFailure), string(model.BuildCancelled):
		return colorNG
	}
	return colorSkip
}

// printReport renders the per-leg table
func printReport(w io.Writer, report *model.RunReport) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, colorHead.Sprint("TARGET\tBUILD\tPACKAGE\tPUBLISH\tCACHE\tDURATION"))
	for _, leg := range report.Legs {
		cache := "miss"
		if leg.CacheHit {
			cache = "hit"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			leg.Target.Triple,
			statusColor(string(leg.Build)).Sprint(leg.Build),
			statusColor(string(leg.Package)).Sprint(leg.Package),
			statusColor(string(leg.Publish.Status)).Sprint(leg.Publish.Status),
			cache,
			leg.Duration.Round(time.Millisecond),
		)
	}
	_ = tw.Flush()

	verdict := colorOK.Sprint(report.Status)
	if report.Status == model.RunFailure {
		verdict = colorNG.Sprint(report.Status)
	}
	fmt.Fprintf(w, "\nrun %s: %s (publish gate: %t)\n", report.Run.ID, verdict, report.Gate)

	for _, leg := range report.FailedLegs() {
		fmt.Fprintf(w, "\n%s %s\n", colorNG.Sprint("FAILED"), leg.Target.Triple)
		if leg.Error != "" {
			fmt.Fprintln(w, leg.Error)
		}
		if leg.Log != "" {
			fmt.Fprintln(w, leg.Log)
		}
	}
	for _, leg := range report.PublishFailures() {
		fmt.Fprintf(w, "\n%s %s: %s\n", colorNG.Sprint("UPLOAD FAILED"), leg.Target.Triple, leg.Publish.Error)
	}
}

// printTargets renders registry entries
func printTargets(w io.Writer, targets []model.TargetSpec) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, colorHead.Sprint("TRIPLE\tHOST\tCHANNEL\tVENDOR\tPUBLISH"))
	for _, t := range targets {
		vendor := t.VendorTag
		if vendor == "" {
			vendor = "-"
		}
		publish := colorSkip.Sprint("no")
		if t.Publishable() {
			publish = colorOK.Sprint("yes")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Triple, t.HostClass, t.Channel, vendor, publish)
	}
	_ = tw.Flush()
}
