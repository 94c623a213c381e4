package types

import "fmt"

// Stage is one ordered step of the job pipeline. Transitions are strictly
// forward-moving except to the Failed sink; Completed and Failed are terminal.
type Stage string

const (
	StagePending      Stage = "pending"
	StageDownloading  Stage = "downloading"
	StageTranscribing Stage = "transcribing"
	StageAnalyzing    Stage = "analyzing"
	StageEditing      Stage = "editing"
	StageUploading    Stage = "uploading"
	StageCompleted    Stage = "completed"
	StageFailed       Stage = "failed"
)

var stageTransitions = map[Stage]map[Stage]bool{
	StagePending: {
		StageDownloading: true,
		StageFailed:      true,
	},
	StageDownloading: {
		StageTranscribing: true,
		StageFailed:       true,
	},
	StageTranscribing: {
		StageAnalyzing: true,
		StageFailed:    true,
	},
	StageAnalyzing: {
		StageEditing: true,
		StageFailed:  true,
	},
	StageEditing: {
		StageUploading: true,
		StageCompleted: true, // upload stage is optional
		StageFailed:    true,
	},
	StageUploading: {
		StageCompleted: true,
		StageFailed:    true,
	},
	StageCompleted: {},
	StageFailed: {
		StagePending: true, // explicit retry restarts the whole pipeline
	},
}

// Progress checkpoints written together with each stage transition.
var stageProgress = map[Stage]int{
	StagePending:      0,
	StageDownloading:  10,
	StageTranscribing: 30,
	StageAnalyzing:    50,
	StageEditing:      70,
	StageUploading:    90,
	StageCompleted:    100,
	StageFailed:       0,
}

func IsKnownStage(s Stage) bool {
	_, ok := stageTransitions[s]
	return ok
}

func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

func CanTransitionStage(from, to Stage) bool {
	next, ok := stageTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

func StageProgress(s Stage) int { return stageProgress[s] }

// TransitionStage validates and applies a stage change, updating the
// progress checkpoint in the same mutation. Failure details are applied by
// the caller because error text accompanies only the Failed stage.
func TransitionStage(job *Job, to Stage) error {
	if !CanTransitionStage(job.Stage, to) {
		return fmt.Errorf("invalid stage transition: %q -> %q (job_id=%s)", job.Stage, to, job.ID)
	}
	job.Stage = to
	job.Progress = StageProgress(to)
	if to != StageFailed {
		job.Error = ""
	}
	return nil
}
