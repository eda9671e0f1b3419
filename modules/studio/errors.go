package studio

import "fmt"

// PlanParseError means the planner answered but not with a usable plan.
type PlanParseError struct {
	Raw string
	Err error
}

func (e *PlanParseError) Error() string {
	head := e.Raw
	if len(head) > 200 {
		head = head[:200] + "..."
	}
	return fmt.Sprintf("failed to parse creative plan: %v (response head: %q)", e.Err, head)
}

func (e *PlanParseError) Unwrap() error {
	return e.Err
}

// ShotGenerationError records a single failed storyboard frame.
type ShotGenerationError struct {
	Index int
	Err   error
}

func (e *ShotGenerationError) Error() string {
	return fmt.Sprintf("shot %d failed: %v", e.Index+1, e.Err)
}

func (e *ShotGenerationError) Unwrap() error {
	return e.Err
}

// BatchGenerationFailure means every shot in the loop failed. It
// carries the first failure since that is usually the root cause.
type BatchGenerationFailure struct {
	Total int
	First error
}

func (e *BatchGenerationFailure) Error() string {
	return fmt.Sprintf("all %d shots failed, first error: %v", e.Total, e.First)
}

func (e *BatchGenerationFailure) Unwrap() error {
	return e.First
}
