package responses

import "github.com/goccy/go-json"

type DueInstruments struct {
	PatientID   string   `json:"patient_id,omitempty"`
	Instruments []string `json:"instruments"`
}

// ScreeningArtifacts is the ordered tuple the survey renderer consumes for
// one instrument: its definition, the compiled logic library, and the
// value-set dictionary.
type ScreeningArtifacts struct {
	InstrumentID  string          `json:"instrument_id"`
	Questionnaire json.RawMessage `json:"questionnaire"`
	LogicLibrary  json.RawMessage `json:"logic_library"`
	ValueSets     json.RawMessage `json:"value_sets"`
}
