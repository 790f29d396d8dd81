// Package flows sequences user input validation, orchestrator invocation and
// progress reporting for the shield, unshield and send operations. Each flow
// is a linear progress machine: a step is entered only after the previous
// step's async operation resolved.
package flows

type Step struct {
	ID          string
	Label       string
	Description string
}

// StepNotStarted is the progress index outside a run; failures reset to it
// without clearing user input so the user can correct and retry.
const StepNotStarted = -1

var ShieldSteps = []Step{
	{ID: "preparing", Label: "Preparing transaction", Description: "Building the shield transaction..."},
	{ID: "signing", Label: "Awaiting signature", Description: "Please sign in your wallet"},
	{ID: "confirming", Label: "Confirming on-chain", Description: "Waiting for blockchain confirmation..."},
	{ID: "finalizing", Label: "Finalizing", Description: "Updating your shielded balance..."},
}

var UnshieldSteps = []Step{
	{ID: "preparing", Label: "Preparing withdrawal", Description: "Building the unshield transaction..."},
	{ID: "signing", Label: "Awaiting signature", Description: "Please sign in your wallet"},
	{ID: "confirming", Label: "Confirming on-chain", Description: "Waiting for blockchain confirmation..."},
	{ID: "finalizing", Label: "Finalizing", Description: "Updating your balance..."},
}

var SendSteps = []Step{
	{ID: "proving", Label: "Generating ZK proof", Description: "Preparing the private transfer..."},
	{ID: "sign-proof", Label: "Sign proof upload", Description: "First signature: authorize the proof"},
	{ID: "sign-transfer", Label: "Sign transfer", Description: "Second signature: authorize the transfer"},
	{ID: "processing", Label: "Processing transfer", Description: "Relayer is executing the transfer..."},
	{ID: "confirming", Label: "Confirming on-chain", Description: "Waiting for blockchain confirmation..."},
}

// ProgressFn observes step transitions. Index is the position within the
// flow's step list.
type ProgressFn func(index int, step Step)

// progress tracks the current step of one run and forwards transitions.
type progress struct {
	steps   []Step
	current int
	notify  ProgressFn
}

func newProgress(steps []Step, notify ProgressFn) *progress {
	return &progress{steps: steps, current: StepNotStarted, notify: notify}
}

func (p *progress) advance(index int) {
	p.current = index
	if p.notify != nil && index >= 0 && index < len(p.steps) {
		p.notify(index, p.steps[index])
	}
}

func (p *progress) reset() {
	p.current = StepNotStarted
}
