package diagnostics

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Codes pushed to /diag subscribers.
const (
	ControlRejected  = "CONTROL.REJECTED"
	TopologyChanged  = "TOPOLOGY.CHANGED"
	SceneImported    = "SCENE.IMPORTED"
	SceneSaved       = "SCENE.SAVED"
	SelfTestRunning  = "TEST.RUNNING"
	SelfTestUnknown  = "TEST.UNKNOWN"
	ConfigSaveFailed = "CONFIG.SAVE_FAILED"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Rejected describes a control command that could not be applied.
func Rejected(cmd string, err error) Diagnostic {
	return Diagnostic{
		Severity: Warn,
		Code:     ControlRejected,
		Summary:  "Control command rejected",
		Detail:   err.Error(),
		Evidence: map[string]any{"cmd": cmd},
		SuggestedFixes: []string{
			"dimensions must be within [3, 9]",
			"plane axes must be distinct and below the current dimension",
		},
	}
}
