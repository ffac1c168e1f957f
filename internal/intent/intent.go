// ABOUTME: Pattern classifier mapping free text to an action category and provider classes.
// ABOUTME: First matching category in declaration order wins; confidence is additive and clamped.

package intent

import (
	"regexp"
	"strings"
)

// minConfidence is the floor below which a pattern hit is discarded.
const minConfidence = 0.3

// actionVerbs boost confidence when the text clearly asks for an action.
var actionVerbs = []string{"send", "create", "search", "run", "execute", "check", "view"}

// Match is one detected intent partitioned against the caller's
// available provider classes.
type Match struct {
	IntentType               string
	Confidence               float64
	Description              string
	RequiredProviderClasses  []string
	AvailableProviderClasses []string
	MissingProviderClasses   []string

	setupGuide          string
	confirmationMessage string
}

type pattern struct {
	re *regexp.Regexp

	// unless suppresses the match when it also hits; stands in for the
	// negative lookahead RE2 does not support.
	unless *regexp.Regexp

	// src length feeds the specificity bonus.
	src string
}

type rule struct {
	intentType          string
	patterns            []pattern
	providerClasses     []string
	description         string
	setupGuide          string
	confirmationMessage string
}

// Matcher holds the ordered rule set. Rules are evaluated in
// declaration order and the first category with any matching pattern
// wins; ties never reach a second category.
type Matcher struct {
	rules []rule
}

func pat(src string) pattern {
	return pattern{re: regexp.MustCompile("(?i)" + src), src: src}
}

func patUnless(src, unless string) pattern {
	p := pat(src)
	p.unless = regexp.MustCompile("(?i)" + unless)
	return p
}

// NewMatcher builds a matcher with the built-in category rules.
func NewMatcher() *Matcher {
	return &Matcher{rules: []rule{
		{
			intentType: "email",
			patterns: []pattern{
				pat(`\b(send|write|compose|draft|reply to|forward)\s+(?:an?\s+)?(?:email|mail|message)\b`),
				pat(`\bemail\s+(?:to|for|about)\b`),
				pat(`\bgmail\b`),
				pat(`\boutlook\b`),
				pat(`\bcheck\s+(?:my\s+)?(?:emails?|mail|inbox)\b`),
				pat(`\bsearch\s+(?:my\s+)?(?:emails?|mail)\b`),
			},
			providerClasses:     []string{"gmail", "outlook"},
			description:         "Email operations (send, read, search)",
			setupGuide:          "To use email features, you need to configure Gmail or Outlook tool providers in your settings.",
			confirmationMessage: "I can help you with email operations. This will require access to your email account. Would you like me to proceed?",
		},
		{
			intentType: "file_operations",
			patterns: []pattern{
				pat(`\b(create|write|save|edit|modify|update)\s+(?:a\s+)?(?:file|document|text)\b`),
				pat(`\b(read|open|view|show|list)\s+(?:my\s+|the\s+)?(?:files?|documents?)\b`),
				pat(`\bsearch\s+(?:for\s+)?(?:files?|documents?)\b`),
				pat(`\b(delete|remove|trash)\s+(?:a\s+)?(?:file|document)\b`),
				pat(`\b(organize|sort|move)\s+(?:files?|documents?)\b`),
				pat(`\bgoogle\s+drive\b`),
				pat(`\b(list|show|view)\s+(?:my\s+)?google\s+drive\s+files\b`),
			},
			providerClasses:     []string{"filesystem", "google_drive", "dropbox"},
			description:         "File and document operations",
			setupGuide:          "To use file operations, you need to configure Filesystem, Google Drive, or Dropbox tool providers in your settings.",
			confirmationMessage: "I can help you with file operations. This will require access to your file system. Would you like me to proceed?",
		},
		{
			intentType: "calendar",
			patterns: []pattern{
				pat(`\b(create|schedule|book|set up)\s+(?:an?\s+)?(?:meeting|appointment|event)\b`),
				pat(`\b(check|view|show)\s+(?:my\s+)?(?:calendar|schedule)\b`),
				pat(`\b(remind|reminder)\b`),
				pat(`\b(google\s+)?calendar\b`),
			},
			providerClasses:     []string{"google_calendar", "outlook_calendar"},
			description:         "Calendar and scheduling operations",
			setupGuide:          "To use calendar features, you need to configure Google Calendar or Outlook Calendar tool providers in your settings.",
			confirmationMessage: "I can help you with calendar operations. This will require access to your calendar. Would you like me to proceed?",
		},
		{
			intentType: "web_search",
			patterns: []pattern{
				pat(`\b(search|find|look up)\s+(?:for\s+)?(?:information|data|news)\b`),
				patUnless(`\b(google|bing|search\s+engine)\b`, `\bgoogle\s*drive\b`),
				pat(`\b(latest|current|recent)\s+(?:news|information)\b`),
				pat(`\b(weather|temperature)\s+(?:in|for)\b`),
			},
			providerClasses:     []string{"web_search", "weather"},
			description:         "Web search and information retrieval",
			setupGuide:          "To use web search features, you need to configure Web Search or Weather tool providers in your settings.",
			confirmationMessage: "I can help you search the web for information. Would you like me to proceed?",
		},
		{
			intentType: "code_execution",
			patterns: []pattern{
				pat(`\b(run|execute|test)\s+(?:this\s+)?(?:code|script|program)\b`),
				pat(`\b(debug|fix|test)\s+(?:my\s+)?(?:code|script)\b`),
				pat(`\b(terminal|command\s+line|shell)\b`),
				pat(`\b(install|setup|configure)\s+(?:package|dependency)\b`),
			},
			providerClasses:     []string{"terminal", "code_executor"},
			description:         "Code execution and terminal operations",
			setupGuide:          "To use code execution features, you need to configure Terminal or Code Executor tool providers in your settings.",
			confirmationMessage: "I can help you execute code or run terminal commands. This will run on your system. Would you like me to proceed?",
		},
		{
			intentType: "database",
			patterns: []pattern{
				pat(`\b(query|search|find)\s+(?:in\s+)?(?:database|db)\b`),
				pat(`\b(insert|add|create)\s+(?:record|entry|data)\b`),
				pat(`\b(update|modify|change)\s+(?:record|entry|data)\b`),
				pat(`\b(delete|remove)\s+(?:record|entry|data)\b`),
			},
			providerClasses:     []string{"database", "sql"},
			description:         "Database operations",
			setupGuide:          "To use database features, you need to configure Database or SQL tool providers in your settings.",
			confirmationMessage: "I can help you with database operations. This will require access to your database. Would you like me to proceed?",
		},
	}}
}

// Detect classifies text against the rule set and partitions the
// winning category's provider classes against availableClasses. The
// result is deterministic: identical inputs yield identical matches.
func (m *Matcher) Detect(text string, availableClasses []string) (*Match, bool) {
	lower := strings.ToLower(text)

	for _, r := range m.rules {
		for _, p := range r.patterns {
			if !p.re.MatchString(lower) {
				continue
			}
			if p.unless != nil && p.unless.MatchString(lower) {
				continue
			}
			confidence := scoreConfidence(lower, p.src)
			if confidence <= minConfidence {
				continue
			}

			available := make(map[string]struct{}, len(availableClasses))
			for _, c := range availableClasses {
				available[c] = struct{}{}
			}
			match := &Match{
				IntentType:              r.intentType,
				Confidence:              confidence,
				Description:             r.description,
				RequiredProviderClasses: append([]string(nil), r.providerClasses...),
				setupGuide:              r.setupGuide,
				confirmationMessage:     r.confirmationMessage,
			}
			for _, c := range r.providerClasses {
				if _, ok := available[c]; ok {
					match.AvailableProviderClasses = append(match.AvailableProviderClasses, c)
				} else {
					match.MissingProviderClasses = append(match.MissingProviderClasses, c)
				}
			}
			return match, true
		}
	}
	return nil, false
}

// scoreConfidence is additive: 0.5 base for the hit, 0.2 for the match
// itself, 0.1 when the pattern is long enough to be specific, 0.2 when
// the text carries an explicit action verb, clamped to 1.0.
func scoreConfidence(lower, patternSrc string) float64 {
	confidence := 0.5 + 0.2
	if len(patternSrc) > 20 {
		confidence += 0.1
	}
	for _, verb := range actionVerbs {
		if strings.Contains(lower, verb) {
			confidence += 0.2
			break
		}
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}
