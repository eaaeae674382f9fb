package domain

import "testing"

func TestAdvanceFrom(t *testing.T) {
	cases := []struct {
		step       Step
		wantStep   Step
		wantStatus JobStatus
	}{
		{StepGenerate, StepRender, StatusFramesPending},
		{StepRender, StepAssemble, StatusAssemblyPending},
		{StepAssemble, StepPublish, StatusUploadPending},
		{StepPublish, StepPublish, StatusCompleted},
	}
	for _, tc := range cases {
		step, status := AdvanceFrom(tc.step)
		if step != tc.wantStep || status != tc.wantStatus {
			t.Fatalf("AdvanceFrom(%d) = (%d, %q), want (%d, %q)", tc.step, step, status, tc.wantStep, tc.wantStatus)
		}
	}
}

func TestStatusForStep(t *testing.T) {
	cases := []struct {
		step Step
		want JobStatus
	}{
		{StepGenerate, StatusPending},
		{StepRender, StatusFramesPending},
		{StepAssemble, StatusAssemblyPending},
		{StepPublish, StatusUploadPending},
	}
	for _, tc := range cases {
		if got := StatusForStep(tc.step); got != tc.want {
			t.Fatalf("StatusForStep(%d) = %q, want %q", tc.step, got, tc.want)
		}
	}
}
