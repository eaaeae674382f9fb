package domain

import "time"

// Step is the pipeline position of a job. Steps only move forward, and only
// when the stage owning the current step succeeds.
type Step int

const (
	StepGenerate Step = 1
	StepRender   Step = 2
	StepAssemble Step = 3
	StepPublish  Step = 4
)

// JobStatus enumerates job lifecycle states. Exactly one status is claimable
// per step; failed keeps the step unchanged so the same stage retries it.
type JobStatus string

const (
	StatusPending         JobStatus = "pending"
	StatusFramesPending   JobStatus = "frames_pending"
	StatusAssemblyPending JobStatus = "assembly_pending"
	StatusUploadPending   JobStatus = "upload_pending"
	StatusCompleted       JobStatus = "completed"
	StatusFailed          JobStatus = "failed"
)

// DefaultMaxAttempts bounds how often the retry reconciler resurrects a
// failed job before leaving it to operators.
const DefaultMaxAttempts = 5

// Job is one unit of content moving through generation, frame rendering,
// assembly and publish. AccountID, Persona and Topic never change after
// creation.
type Job struct {
	ID           string
	AccountID    string
	Persona      string
	Topic        string
	Step         Step
	Status       JobStatus
	Payload      Payload
	ErrorMessage string
	Attempts     int
	MaxAttempts  int
	NextRetryAt  *time.Time
	ClaimedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StatusForStep returns the status a stage claims at the given step.
func StatusForStep(step Step) JobStatus {
	switch step {
	case StepRender:
		return StatusFramesPending
	case StepAssemble:
		return StatusAssemblyPending
	case StepPublish:
		return StatusUploadPending
	default:
		return StatusPending
	}
}

// AdvanceFrom returns the (step, status) a job moves to when the stage owning
// the given step succeeds. The publish stage keeps its step and completes.
func AdvanceFrom(step Step) (Step, JobStatus) {
	switch step {
	case StepGenerate:
		return StepRender, StatusFramesPending
	case StepRender:
		return StepAssemble, StatusAssemblyPending
	case StepAssemble:
		return StepPublish, StatusUploadPending
	default:
		return StepPublish, StatusCompleted
	}
}
