package agent

// Phase is the loop driver's current step.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseDeciding
	PhaseActing
	PhaseRecording
	PhaseSummarizing
	PhaseSleeping
	PhaseDone
)

var phaseNames = [...]string{
	PhaseIdle:        "idle",
	PhaseFetching:    "fetching",
	PhaseDeciding:    "deciding",
	PhaseActing:      "acting",
	PhaseRecording:   "recording",
	PhaseSummarizing: "summarizing",
	PhaseSleeping:    "sleeping",
	PhaseDone:        "done",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}
