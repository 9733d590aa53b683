package domain

// Stage is the current step of the scripted dialogue. Stages only advance
// forward, except that completion may loop back to ask_category when the
// visitor asks for more help.
type Stage string

const (
	StageGreeting        Stage = "greeting"
	StageAskName         Stage = "ask_name"
	StageAskLocation     Stage = "ask_location"
	StageAskCategory     Stage = "ask_category"
	StageMaterialDetails Stage = "material_details"
	StageCompletion      Stage = "completion"
)

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	switch s {
	case StageGreeting, StageAskName, StageAskLocation, StageAskCategory,
		StageMaterialDetails, StageCompletion:
		return true
	}
	return false
}
