package model

import sdkmath "cosmossdk.io/math"

// WorkflowState is the phase of the reinvest cycle.
type WorkflowState string

const (
	WorkflowIdle                WorkflowState = "idle"
	WorkflowAwaitingWithdrawals WorkflowState = "awaiting_withdrawals"
)

// Workflow is persisted between the call that starts reward withdrawal and the
// reply that resumes it. Balance is the liquid balance snapshot the rewards are
// measured against.
type Workflow struct {
	State     WorkflowState `json:"state"`
	Balance   sdkmath.Int   `json:"balance"`
	CycleID   string        `json:"cycle_id,omitempty"`
	StartedAt uint64        `json:"started_at,omitempty"`
}

func IdleWorkflow() Workflow {
	return Workflow{State: WorkflowIdle, Balance: sdkmath.ZeroInt()}
}

func (w Workflow) Pending() bool {
	return w.State == WorkflowAwaitingWithdrawals
}
