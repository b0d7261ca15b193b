package webhook

import "github.com/stretchr/testify/mock"

// MatchOutcome creates a custom matcher for outcome arguments in mocks
func MatchOutcome(matcher func(Outcome) bool) interface{} {
	return mock.MatchedBy(matcher)
}
