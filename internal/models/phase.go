package models

// Phase is the upload lifecycle state.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseUploading Phase = "uploading"
	PhaseLoaded    Phase = "loaded"
	PhaseFailed    Phase = "failed"
)

// Snapshot is a point-in-time copy of the visualization state.
type Snapshot struct {
	Phase    Phase                `json:"phase"`
	Reason   string               `json:"reason,omitempty"`
	File     *FileMeta            `json:"file,omitempty"`
	Result   *VisualizationResult `json:"result,omitempty"`
	UploadID string               `json:"uploadId,omitempty"`
}

// ChartCount returns the number of loaded charts, zero when none are loaded.
func (s Snapshot) ChartCount() int {
	if s.Result == nil {
		return 0
	}
	return len(s.Result.Charts)
}
