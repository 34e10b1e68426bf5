package model

// FlowState stores per-invocation state for the Eino Graph that runs one step.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - A fresh FlowState is generated for every Invoke, so nothing leaks between steps.
type FlowState struct {
	ConversationID string
	MaxLoopCount   int

	// TopicSwitch is the switch applied this step, empty when none.
	TopicSwitch string
	// Executed is the responder that ran this step, empty when skipped.
	Executed   StepID
	Completion *SubtaskResult
	Failure    error
	Violations []string
}

// StepInput is the graph input: the state to advance and the loop ceiling
// that applies to this call.
type StepInput struct {
	State        *ConversationState
	MaxLoopCount int
}

// StepOutcome is the graph output.
type StepOutcome struct {
	State       *ConversationState
	Route       StepID
	Signal      Signal
	TopicSwitch string
	Executed    StepID
	Completion  *SubtaskResult
	Violations  []string
	// Err carries a responder failure. The state has still been advanced.
	Err error
}
