// Package voice extracts a structured finding from a short mechanic
// utterance. The parser is pure and deterministic: no I/O, no learned
// model, identical output for identical input.
package voice

import (
	"regexp"
	"strconv"
	"strings"
)

// Status classifies the observed condition of a component.
const (
	StatusGood           = "good"
	StatusFair           = "fair"
	StatusNeedsAttention = "needs_attention"
	StatusCritical       = "critical"
)

// Action is the recommended follow-up.
const (
	ActionNone    = "none"
	ActionMonitor = "monitor"
	ActionReplace = "replace"
	ActionCheck   = "check"
	ActionService = "service"
)

// Measurement is a normalized numeric observation.
type Measurement struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"` // mm, inch, psi, percent, V, 32nds
}

// Finding is the structured result of parsing one utterance.
type Finding struct {
	Component   string       `json:"component,omitempty"`
	Status      string       `json:"status"`
	Measurement *Measurement `json:"measurement"`
	Action      string       `json:"action"`
	Confidence  float64      `json:"confidence"`
}

// Per-recognizer confidence contributions. Overall confidence is their
// product, clipped to [0,1]. A recognizer that finds nothing contributes
// 1.0 when its output is nullable (measurement), otherwise 0.0.
const (
	componentConfidence   = 0.9
	measurementConfidence = 0.95
	keywordConfidence     = 0.9
)

// componentEntry maps a spoken phrase to its canonical component name.
type componentEntry struct {
	phrase    string
	canonical string
}

// componentTable is ordered longest-phrase-first; the first match wins.
// Aliases map onto the checklist's canonical component names.
var componentTable = []componentEntry{
	{"front brake pads", "front brake pads"},
	{"rear brake pads", "rear brake pads"},
	{"front brake pad", "front brake pads"},
	{"rear brake pad", "rear brake pads"},
	{"transmission fluid", "transmission fluid"},
	{"left headlight", "left headlight"},
	{"right headlight", "right headlight"},
	{"serpentine belt", "serpentine belt"},
	{"windshield wipers", "wiper blades"},
	{"coolant level", "coolant level"},
	{"wiper blades", "wiper blades"},
	{"front brakes", "front brake pads"},
	{"rear brakes", "rear brake pads"},
	{"brake fluid", "brake fluid"},
	{"front brake", "front brake pads"},
	{"rear brake", "rear brake pads"},
	{"tire tread", "tire tread"},
	{"air filter", "air filter"},
	{"cabin filter", "cabin filter"},
	{"oil level", "oil level"},
	{"headlights", "headlights"},
	{"battery", "battery"},
	{"coolant", "coolant level"},
	{"brakes", "front brake pads"},
	{"wipers", "wiper blades"},
	{"tires", "tire tread"},
	{"tire", "tire tread"},
	{"oil", "oil level"},
}

// keywordEntry maps a phrase to a status/action pair.
type keywordEntry struct {
	phrase string
	status string
	action string
}

// keywordTable is ordered longest-phrase-first; the first match wins.
var keywordTable = []keywordEntry{
	{"needs to be replaced", StatusCritical, ActionReplace},
	{"needs replacement", StatusCritical, ActionReplace},
	{"metal to metal", StatusCritical, ActionReplace},
	{"needs attention", StatusNeedsAttention, ActionCheck},
	{"starting to wear", StatusFair, ActionMonitor},
	{"needs service", StatusNeedsAttention, ActionService},
	{"due for service", StatusNeedsAttention, ActionService},
	{"slightly worn", StatusFair, ActionMonitor},
	{"looking good", StatusGood, ActionNone},
	{"looks good", StatusGood, ActionNone},
	{"getting low", StatusNeedsAttention, ActionMonitor},
	{"no issues", StatusGood, ActionNone},
	{"all good", StatusGood, ActionNone},
	{"excellent", StatusGood, ActionNone},
	{"dangerous", StatusCritical, ActionReplace},
	{"squeaking", StatusNeedsAttention, ActionCheck},
	{"replace", StatusCritical, ActionReplace},
	{"inspect", StatusNeedsAttention, ActionCheck},
	{"leaking", StatusNeedsAttention, ActionService},
	{"healthy", StatusGood, ActionNone},
	{"perfect", StatusGood, ActionNone},
	{"failed", StatusCritical, ActionReplace},
	{"great", StatusGood, ActionNone},
	{"dirty", StatusNeedsAttention, ActionService},
	{"check", StatusNeedsAttention, ActionCheck},
	{"worn", StatusNeedsAttention, ActionMonitor},
	{"dead", StatusCritical, ActionReplace},
	{"fair", StatusFair, ActionMonitor},
	{"fine", StatusGood, ActionNone},
	{"good", StatusGood, ActionNone},
	{"okay", StatusFair, ActionMonitor},
	{"bad", StatusCritical, ActionReplace},
	{"low", StatusNeedsAttention, ActionMonitor},
	{"ok", StatusFair, ActionMonitor},
}

// unitPatterns normalize spoken unit spellings to canonical unit names.
var unitPatterns = []struct {
	re   *regexp.Regexp
	unit string
}{
	{regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(?:mm|millimeters?|millimetres?)$`), "mm"},
	{regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(?:inches?|inch|in|")$`), "inch"},
	{regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*psi$`), "psi"},
	{regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(?:%|percent)$`), "percent"},
	{regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(?:v|volts?)$`), "V"},
	{regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(?:32nds?|thirty.seconds)$`), "32nds"},
}

// fractionRe matches a bare fraction like 3/32, normalized to 32nds.
var fractionRe = regexp.MustCompile(`\b(\d+)\s*/\s*32\b`)

// measurementRe finds a number followed by a unit token.
var measurementRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(mm|millimeters?|millimetres?|inches?|inch|in|"|psi|%|percent|v|volts?|32nds?)\b`)

// canonicalRe strips everything but letters, digits, slashes, dots, and
// percent signs before matching.
var (
	punctRe      = regexp.MustCompile(`[^a-z0-9/.%" ]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

func canonicalize(text string) string {
	t := strings.ToLower(text)
	t = punctRe.ReplaceAllString(t, " ")
	t = whitespaceRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// Parse extracts a structured finding from the utterance. Component,
// measurement, and status/action recognition run independently; a length
// or voltage measurement can override the keyword-derived status via the
// component thresholds.
func Parse(text string) Finding {
	t := canonicalize(text)

	finding := Finding{
		Status: StatusNeedsAttention,
		Action: ActionCheck,
	}
	confidence := 1.0

	// 1. Component: first longest match wins.
	if component, ok := matchComponent(t); ok {
		finding.Component = component
		confidence *= componentConfidence
	} else {
		confidence = 0
	}

	// 2. Measurement: first match, normalized.
	if m, ok := extractMeasurement(t); ok {
		finding.Measurement = &m
		confidence *= measurementConfidence
	}
	// A silent measurement recognizer contributes 1.0 (nullable output).

	// 3. Status/action: keyword table, then measurement override.
	statusFound := false
	if kw, ok := matchKeyword(t); ok {
		finding.Status = kw.status
		finding.Action = kw.action
		statusFound = true
		confidence *= keywordConfidence
	}
	if finding.Measurement != nil {
		if status, action, ok := gradeMeasurement(finding.Component, *finding.Measurement); ok {
			// Thresholds override spoken impressions.
			finding.Status = status
			finding.Action = action
			if !statusFound {
				statusFound = true
				confidence *= measurementConfidence
			}
		}
	}
	if !statusFound {
		// Status is not nullable, so an unrecognized status zeroes the
		// overall confidence.
		confidence = 0
	}

	finding.Confidence = clip01(confidence)
	return finding
}

func matchComponent(t string) (string, bool) {
	for _, e := range componentTable {
		if containsPhrase(t, e.phrase) {
			return e.canonical, true
		}
	}
	return "", false
}

func matchKeyword(t string) (keywordEntry, bool) {
	for _, e := range keywordTable {
		if containsPhrase(t, e.phrase) {
			return e, true
		}
	}
	return keywordEntry{}, false
}

// containsPhrase matches on word boundaries so "ok" does not match
// inside "broken".
func containsPhrase(t, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(t[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		startOK := start == 0 || t[start-1] == ' '
		endOK := end == len(t) || t[end] == ' '
		if startOK && endOK {
			return true
		}
		idx = start + 1
		if idx >= len(t) {
			return false
		}
	}
}

func extractMeasurement(t string) (Measurement, bool) {
	// Bare fractions first: "3/32" is tread depth in 32nds.
	if m := fractionRe.FindStringSubmatch(t); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return Measurement{Value: v, Unit: "32nds"}, true
		}
	}
	m := measurementRe.FindStringSubmatch(t)
	if m == nil {
		return Measurement{}, false
	}
	candidate := m[1] + " " + m[2]
	for _, p := range unitPatterns {
		if sub := p.re.FindStringSubmatch(candidate); sub != nil {
			v, err := strconv.ParseFloat(sub[1], 64)
			if err != nil {
				return Measurement{}, false
			}
			return Measurement{Value: v, Unit: p.unit}, true
		}
	}
	return Measurement{}, false
}

// threshold defines the grading bands for one component family:
// good at or above Green, fair at or above Yellow, critical below.
type threshold struct {
	unit   string
	green  float64
	yellow float64
}

// measurementThresholds by canonical component. Values follow the shop
// manuals: brake pads in mm (6/3), tread in 32nds (6/4), battery in
// volts (12.4/12.0).
var measurementThresholds = map[string]threshold{
	"front brake pads": {unit: "mm", green: 6, yellow: 3},
	"rear brake pads":  {unit: "mm", green: 6, yellow: 3},
	"tire tread":       {unit: "32nds", green: 6, yellow: 4},
	"battery":          {unit: "V", green: 12.4, yellow: 12.0},
}

func gradeMeasurement(component string, m Measurement) (status, action string, ok bool) {
	th, found := measurementThresholds[component]
	if !found || th.unit != m.Unit {
		return "", "", false
	}
	switch {
	case m.Value >= th.green:
		return StatusGood, ActionNone, true
	case m.Value >= th.yellow:
		return StatusFair, ActionMonitor, true
	default:
		return StatusCritical, ActionReplace, true
	}
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
