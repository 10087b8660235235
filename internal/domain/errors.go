package domain

import "fmt"

// EngineError is the unified error type for the engine.
// Each error has a numeric code and human-readable message.
type EngineError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error %d: %s", e.Code, e.Message)
}

// NewEngineError creates a new EngineError.
func NewEngineError(code int, msg string) *EngineError {
	return &EngineError{Code: code, Message: msg}
}

// WrapEngineError creates an EngineError that includes a cause.
func WrapEngineError(code int, msg string, cause error) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf("%s: %v", msg, cause)}
}

// ---- Workbench / state machine errors (-32010 to -32039) ----

var (
	ErrInvalidReference = &EngineError{Code: -32010, Message: "referenced equipment or chemical does not exist"}
	ErrCapacityExceeded = &EngineError{Code: -32011, Message: "container capacity exceeded"}
	ErrSelfPour         = &EngineError{Code: -32012, Message: "cannot pour a container into itself"}
	ErrMissingApparatus = &EngineError{Code: -32013, Message: "required apparatus is not on the workbench"}
	ErrSingletonExists  = &EngineError{Code: -32014, Message: "a container of this type already exists"}
	ErrNotAContainer    = &EngineError{Code: -32015, Message: "equipment cannot hold solutions"}
	ErrSourceEmpty      = &EngineError{Code: -32016, Message: "source container is empty"}
	ErrMergeInvariant   = &EngineError{Code: -32017, Message: "duplicate chemical entries found after merge"}
)

// ---- Attachment errors (-32040 to -32059) ----

var (
	ErrAlreadyAttached = &EngineError{Code: -32040, Message: "equipment is already attached to a parent"}
	ErrAttachmentCycle = &EngineError{Code: -32041, Message: "attachment would create a cycle"}
	ErrSelfAttach      = &EngineError{Code: -32042, Message: "cannot attach equipment to itself"}
	ErrNotAttached     = &EngineError{Code: -32043, Message: "equipment is not attached to anything"}
)

// ---- Collaborator errors (-32070 to -32099) ----

var (
	ErrPredictionFailed   = &EngineError{Code: -32070, Message: "reaction prediction failed"}
	ErrPredictionTimeout  = &EngineError{Code: -32071, Message: "reaction prediction timed out"}
	ErrPredictionInvalid  = &EngineError{Code: -32072, Message: "reaction prediction violates volume conservation"}
	ErrMixInFlight        = &EngineError{Code: -32073, Message: "a mix is already pending for this container"}
	ErrMixNothingToDo     = &EngineError{Code: -32074, Message: "container holds fewer than two chemicals"}
	ErrAssistUnavailable  = &EngineError{Code: -32075, Message: "assist collaborator is not configured"}
	ErrSuggestionFailed   = &EngineError{Code: -32076, Message: "next-step suggestion failed"}
	ErrMixResultDiscarded = &EngineError{Code: -32077, Message: "mix result arrived after the container changed"}
)

// ---- Safety / precondition errors (-32100 to -32129) ----

var (
	ErrSafetyDisabled     = &EngineError{Code: -32100, Message: "safety equipment is disabled"}
	ErrPreconditionFailed = &EngineError{Code: -32101, Message: "operation precondition not met"}
	ErrRateLimitExceeded  = &EngineError{Code: -32102, Message: "rate limit exceeded"}
)

// ---- Store / Config errors (-32130 to -32159) ----

var (
	ErrStoreInit     = &EngineError{Code: -32130, Message: "failed to initialize store"}
	ErrStoreQuery    = &EngineError{Code: -32131, Message: "store query failed"}
	ErrStoreWrite    = &EngineError{Code: -32132, Message: "store write failed"}
	ErrConfigInvalid = &EngineError{Code: -32133, Message: "invalid configuration"}
)
