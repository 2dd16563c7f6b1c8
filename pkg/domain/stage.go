package domain

import "fmt"

// CaseStage is the position of a case in the nine-step eviction pipeline.
type CaseStage int

// Canonical pipeline stages. StageClosed is terminal.
const (
	StageNewLead       CaseStage = 1
	StageUnderReview   CaseStage = 2
	StageNoticeServed  CaseStage = 3
	StageWaitingPeriod CaseStage = 4
	StageCourtFiling   CaseStage = 5
	StageHearing       CaseStage = 6
	StageJudgment      CaseStage = 7
	StageEnforcement   CaseStage = 8
	StageClosed        CaseStage = 9
)

// Pipeline bounds.
const (
	MinStage = StageNewLead
	MaxStage = StageClosed
)

var stageTitles = map[CaseStage]string{
	StageNewLead:       "New Lead",
	StageUnderReview:   "Under Review",
	StageNoticeServed:  "Notice Served",
	StageWaitingPeriod: "Waiting Period",
	StageCourtFiling:   "Court Filing",
	StageHearing:       "Hearing Scheduled",
	StageJudgment:      "Judgment",
	StageEnforcement:   "Enforcement/Lockout",
	StageClosed:        "Case Closed",
}

// Stages lists every stage in pipeline order.
func Stages() []CaseStage {
	out := make([]CaseStage, 0, int(MaxStage))
	for s := MinStage; s <= MaxStage; s++ {
		out = append(out, s)
	}
	return out
}

// Valid reports whether s lies within the pipeline.
func (s CaseStage) Valid() bool { return s >= MinStage && s <= MaxStage }

// Terminal reports whether s is the closing stage.
func (s CaseStage) Terminal() bool { return s == MaxStage }

// Next returns the following stage and false when s is terminal or invalid.
func (s CaseStage) Next() (CaseStage, bool) {
	if !s.Valid() || s.Terminal() {
		return s, false
	}
	return s + 1, true
}

// Title returns the display name, or "Unknown Stage" for out-of-range values.
func (s CaseStage) Title() string {
	if title, ok := stageTitles[s]; ok {
		return title
	}
	return "Unknown Stage"
}

func (s CaseStage) String() string {
	return fmt.Sprintf("%d (%s)", int(s), s.Title())
}
