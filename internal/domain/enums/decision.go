package enums

import "strings"

type Decision string

const (
	DecisionLike Decision = "like"
	DecisionPass Decision = "pass"
)

func ParseDecision(raw string) (Decision, bool) {
	switch Decision(strings.ToLower(strings.TrimSpace(raw))) {
	case DecisionLike:
		return DecisionLike, true
	case DecisionPass:
		return DecisionPass, true
	default:
		return "", false
	}
}
