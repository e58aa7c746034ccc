package chatbot

import "eppdetect/internal/model"

// Session gives rules read access to the last analysis.
type Session interface {
	Get() (model.ComplianceVerdict, bool)
}

// Rule pairs a predicate over the query with a response builder. Rules that
// need an analysis set NeedsAnalysis; with an empty session they either answer
// NoAnalysis (when set) or are skipped.
type Rule struct {
	Name          string
	Match         func(q Query) bool
	NeedsAnalysis bool
	// NoAnalysis answers an analysis rule when the session is empty instead of
	// falling through to the next rule.
	NoAnalysis string
	// Respond builds the answer; ok is false when no analysis ran yet.
	Respond func(v model.ComplianceVerdict, ok bool) string
}

// Bot answers messages with the first matching rule in priority order.
type Bot struct {
	rules    []Rule
	fallback string
	session  Session
}

// New creates a Bot using the default rule table.
func New(session Session) *Bot {
	return &Bot{rules: DefaultRules(), fallback: fallbackText, session: session}
}

// NewWithRules creates a Bot with a custom rule table.
func NewWithRules(session Session, rules []Rule, fallback string) *Bot {
	return &Bot{rules: rules, fallback: fallback, session: session}
}

// Answer returns the response to message and the name of the rule that
// produced it.
func (b *Bot) Answer(message string) (response string, rule string, err error) {
	q := NewQuery(message)
	if q.Raw == "" {
		return "", "", model.ErrEmptyMessage
	}

	verdict, ok := b.session.Get()
	for _, r := range b.rules {
		if !r.Match(q) {
			continue
		}
		if r.NeedsAnalysis && !ok {
			if r.NoAnalysis == "" {
				continue
			}
			return r.NoAnalysis, r.Name, nil
		}
		return r.Respond(verdict, ok), r.Name, nil
	}
	return b.fallback, "fallback", nil
}
