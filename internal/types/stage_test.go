package types

import "testing"

func TestCanTransitionStage(t *testing.T) {
	cases := []struct {
		from, to Stage
		ok       bool
	}{
		{StagePending, StageDownloading, true},
		{StageDownloading, StageTranscribing, true},
		{StageTranscribing, StageAnalyzing, true},
		{StageAnalyzing, StageEditing, true},
		{StageEditing, StageUploading, true},
		{StageEditing, StageCompleted, true},
		{StageUploading, StageCompleted, true},
		{StageFailed, StagePending, true},

		{StagePending, StageTranscribing, false},
		{StageDownloading, StageEditing, false},
		{StageCompleted, StagePending, false},
		{StageCompleted, StageFailed, false},
		{StageUploading, StageEditing, false},
	}
	for _, c := range cases {
		if got := CanTransitionStage(c.from, c.to); got != c.ok {
			t.Errorf("CanTransitionStage(%s, %s) = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestEveryStageCanFail(t *testing.T) {
	for _, s := range []Stage{StagePending, StageDownloading, StageTranscribing, StageAnalyzing, StageEditing, StageUploading} {
		if !CanTransitionStage(s, StageFailed) {
			t.Errorf("stage %s cannot transition to failed", s)
		}
	}
}

func TestTransitionStage_SetsProgress(t *testing.T) {
	job := &Job{ID: "j1", Stage: StagePending}
	steps := []struct {
		to       Stage
		progress int
	}{
		{StageDownloading, 10},
		{StageTranscribing, 30},
		{StageAnalyzing, 50},
		{StageEditing, 70},
		{StageUploading, 90},
		{StageCompleted, 100},
	}
	for _, s := range steps {
		if err := TransitionStage(job, s.to); err != nil {
			t.Fatalf("transition to %s: %v", s.to, err)
		}
		if job.Progress != s.progress {
			t.Fatalf("stage %s: progress = %d, want %d", s.to, job.Progress, s.progress)
		}
	}
}

func TestTransitionStage_FailedKeepsError(t *testing.T) {
	job := &Job{ID: "j1", Stage: StageDownloading, Progress: 10}
	if err := TransitionStage(job, StageFailed); err != nil {
		t.Fatalf("transition to failed: %v", err)
	}
	job.Error = "download exploded"
	if job.Progress != 0 {
		t.Fatalf("failed progress = %d, want 0", job.Progress)
	}

	// Retry clears the error text.
	if err := TransitionStage(job, StagePending); err != nil {
		t.Fatalf("retry transition: %v", err)
	}
	if job.Error != "" {
		t.Fatalf("error not cleared on retry: %q", job.Error)
	}
}

func TestTransitionStage_RejectsInvalid(t *testing.T) {
	job := &Job{ID: "j1", Stage: StageCompleted, Progress: 100}
	if err := TransitionStage(job, StagePending); err == nil {
		t.Fatal("expected error for completed -> pending")
	}
	if job.Stage != StageCompleted || job.Progress != 100 {
		t.Fatalf("job mutated on rejected transition: %s/%d", job.Stage, job.Progress)
	}
}

func TestTerminal(t *testing.T) {
	if !StageCompleted.Terminal() || !StageFailed.Terminal() {
		t.Fatal("completed and failed must be terminal")
	}
	if StagePending.Terminal() || StageUploading.Terminal() {
		t.Fatal("non-terminal stage reported terminal")
	}
}

func TestIsKnownStage(t *testing.T) {
	if !IsKnownStage(StageEditing) {
		t.Fatal("editing should be known")
	}
	if IsKnownStage(Stage("rendering")) {
		t.Fatal("unknown stage accepted")
	}
}
