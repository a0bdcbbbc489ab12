package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mensylisir/nodestate/pkg/action"
	"github.com/mensylisir/nodestate/pkg/reconcile"
)

func TestExitCodeMapping(t *testing.T) {
	assert.Equal(t, ExitAllSucceeded, ExitCode(reconcile.AllSucceeded))
	assert.Equal(t, ExitCompletedWithFailures, ExitCode(reconcile.CompletedWithFailures))
	assert.Equal(t, ExitAbortedEarly, ExitCode(reconcile.AbortedEarly))
	assert.Equal(t, ExitAbortedEarly, ExitCode(reconcile.Status("garbage")))
}

func sampleReport() *reconcile.RunReport {
	return &reconcile.RunReport{
		Target: action.TargetReset,
		Status: reconcile.CompletedWithFailures,
		Outcomes: []reconcile.Outcome{
			{Action: "kubeadm-reset", Check: action.Unsatisfied, Executed: true, Result: reconcile.ResultSuccess, Duration: 1200 * time.Millisecond},
			{Action: "stop-kubelet", Check: action.Satisfied, Result: reconcile.ResultSkipped, Reason: "already satisfied"},
			{Action: "clear-ipvs", Check: action.Unknown, Executed: true, Result: reconcile.ResultSkipped, Reason: "external-tool-missing"},
			{Action: "flush-iptables", Check: action.Unsatisfied, Executed: true, Result: reconcile.ResultFailed, Reason: "permission-denied"},
		},
		StartTime: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 5, 1, 12, 0, 5, 0, time.UTC),
	}
}

func TestWriteJSONShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleReport()))

	var decoded struct {
		Target   string `json:"target"`
		Status   string `json:"status"`
		Outcomes []struct {
			Action     string `json:"action"`
			Probe      string `json:"probe"`
			Executed   bool   `json:"executed"`
			Result     string `json:"result"`
			Reason     string `json:"reason"`
			DurationMS int64  `json:"duration_ms"`
		} `json:"outcomes"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "reset", decoded.Target)
	assert.Equal(t, "completed-with-failures", decoded.Status)
	require.Len(t, decoded.Outcomes, 4)
	assert.Equal(t, "kubeadm-reset", decoded.Outcomes[0].Action)
	assert.Equal(t, "unsatisfied", decoded.Outcomes[0].Probe)
	assert.Equal(t, int64(1200), decoded.Outcomes[0].DurationMS)
	assert.Equal(t, "satisfied", decoded.Outcomes[1].Probe)
	assert.False(t, decoded.Outcomes[1].Executed)
	assert.Equal(t, "unknown", decoded.Outcomes[2].Probe)
	assert.Equal(t, "external-tool-missing", decoded.Outcomes[2].Reason)
}

func TestWriteJSONIncludesPlanningError(t *testing.T) {
	r := &reconcile.RunReport{
		Target:      action.TargetJoin,
		Status:      reconcile.AbortedEarly,
		PlanningErr: errors.New("cycle detected"),
	}
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "cycle detected", decoded["planning_error"])
}

func TestWriteSummaryRendersEveryAction(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	WriteSummary(&buf, sampleReport())
	out := buf.String()

	for _, name := range []string{"kubeadm-reset", "stop-kubelet", "clear-ipvs", "flush-iptables"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "success=1 skipped=2 failed=1 planned=0")
	assert.Contains(t, out, "status: completed with failures")
}

func TestWriteSummaryDryRunUsesPlaceholderProbe(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	r := &reconcile.RunReport{
		Target:   action.TargetJoin,
		Status:   reconcile.AllSucceeded,
		Outcomes: []reconcile.Outcome{{Action: "disable-swap", Result: reconcile.ResultPlanned}},
	}
	var buf bytes.Buffer
	WriteSummary(&buf, r)

	assert.Contains(t, buf.String(), "planned")
	assert.Contains(t, buf.String(), "status: all succeeded")
}
