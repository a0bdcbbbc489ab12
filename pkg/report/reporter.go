// Package report renders a RunReport for humans and machines and maps the
// run status onto the process exit code.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/mensylisir/nodestate/pkg/reconcile"
)

// Exit codes of the nodestate command.
const (
	ExitAllSucceeded          = 0
	ExitCompletedWithFailures = 1
	ExitAbortedEarly          = 2
	ExitInvalidInvocation     = 3
)

// ExitCode maps a run status to the process exit code.
func ExitCode(status reconcile.Status) int {
	switch status {
	case reconcile.AllSucceeded:
		return ExitAllSucceeded
	case reconcile.CompletedWithFailures:
		return ExitCompletedWithFailures
	case reconcile.AbortedEarly:
		return ExitAbortedEarly
	default:
		return ExitAbortedEarly
	}
}

// machineOutcome is the stable wire form of one outcome.
type machineOutcome struct {
	Action     string `json:"action"`
	Probe      string `json:"probe"`
	Executed   bool   `json:"executed"`
	Result     string `json:"result"`
	Reason     string `json:"reason,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type machineReport struct {
	Target      string           `json:"target"`
	Status      string           `json:"status"`
	PlanningErr string           `json:"planning_error,omitempty"`
	StartTime   time.Time        `json:"start_time"`
	EndTime     time.Time        `json:"end_time"`
	Outcomes    []machineOutcome `json:"outcomes"`
}

// WriteJSON emits the machine-checkable form of the report.
func WriteJSON(w io.Writer, r *reconcile.RunReport) error {
	out := machineReport{
		Target:    string(r.Target),
		Status:    string(r.Status),
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Outcomes:  make([]machineOutcome, 0, len(r.Outcomes)),
	}
	if r.PlanningErr != nil {
		out.PlanningErr = r.PlanningErr.Error()
	}
	for _, o := range r.Outcomes {
		out.Outcomes = append(out.Outcomes, machineOutcome{
			Action:     o.Action,
			Probe:      o.Check.String(),
			Executed:   o.Executed,
			Result:     string(o.Result),
			Reason:     o.Reason,
			DurationMS: o.Duration.Milliseconds(),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// WriteSummary renders the ordered per-action table and a status banner.
func WriteSummary(w io.Writer, r *reconcile.RunReport) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Action", "Probe", "Result", "Reason", "Duration"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for i, o := range r.Outcomes {
		result := string(o.Result)
		switch o.Result {
		case reconcile.ResultSuccess:
			result = green(result)
		case reconcile.ResultSkipped, reconcile.ResultPlanned:
			result = yellow(result)
		case reconcile.ResultFailed:
			result = red(result)
		}
		probe := o.Check.String()
		if o.Result == reconcile.ResultPlanned {
			probe = "-"
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			o.Action,
			probe,
			result,
			o.Reason,
			o.Duration.Round(time.Millisecond).String(),
		})
	}
	table.Render()

	success, skipped, failed, planned := r.Counts()
	fmt.Fprintf(w, "\ntarget=%s  success=%d skipped=%d failed=%d planned=%d\n",
		r.Target, success, skipped, failed, planned)

	switch r.Status {
	case reconcile.AllSucceeded:
		fmt.Fprintln(w, green("status: all succeeded"))
	case reconcile.CompletedWithFailures:
		fmt.Fprintln(w, red("status: completed with failures"))
	case reconcile.AbortedEarly:
		fmt.Fprintln(w, red("status: aborted early"))
		if r.PlanningErr != nil {
			fmt.Fprintf(w, "planning error: %v\n", r.PlanningErr)
		}
	}
}
