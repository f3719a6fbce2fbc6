// Package safety classifies pattern actions by risk level.
//
// The classifier is a conservative, false-positive-tolerant heuristic: it
// may over-classify a benign action as caution, but it must never classify
// an action carrying a destructive keyword as safe. The keyword lists below
// are the single source of truth and are tested directly.
package safety

import (
	"sort"
	"strings"

	"github.com/petrijr/ritmo/pkg/api"
)

// alwaysSafe lists action types that carry no risk by construction, such as
// pure in-app notifications. They skip keyword scanning entirely.
var alwaysSafe = map[string]bool{
	"notify":       true,
	"notification": true,
	"reminder":     true,
	"log":          true,
}

// cautionFloor lists action types that are never classified below caution,
// regardless of what the keyword scan says.
var cautionFloor = map[string]bool{
	"run_script":   true,
	"shell":        true,
	"send_message": true,
	"send_email":   true,
	"http_request": true,
	"webhook":      true,
}

// destructiveKeywords mark irreversible or outward-facing effects: data
// removal, money movement, outward communication, machine state changes.
// Checked before cautionKeywords; first match wins.
var destructiveKeywords = []string{
	"delete", "remove", "drop", "purge", "erase", "wipe", "destroy",
	"pay", "transfer", "purchase", "charge", "refund",
	"send", "post", "publish", "share", "tweet", "email",
	"shutdown", "reboot", "format", "overwrite", "kill",
}

// cautionKeywords mark state-modifying but recoverable effects.
var cautionKeywords = []string{
	"modify", "update", "edit", "create", "write",
	"move", "rename", "copy", "archive",
	"http", "request", "fetch", "upload", "execute", "run",
}

// Classify returns the risk level of a single action.
//
// Malformed actions (empty type) are caution by default, never silently
// safe. Types on the allow-list are always safe; all other actions are
// serialized and scanned, with cautionFloor applied afterwards.
func Classify(a api.Action) api.SafetyLevel {
	if a.Type == "" {
		return api.SafetyCaution
	}
	if alwaysSafe[a.Type] {
		return api.SafetySafe
	}

	level := scan(serialize(a))
	if cautionFloor[a.Type] && !level.AtLeast(api.SafetyCaution) {
		level = api.SafetyCaution
	}
	return level
}

// ClassifyAll returns the highest risk level across a set of actions.
// Destructive dominates caution dominates safe. An empty set is safe.
func ClassifyAll(actions []api.Action) api.SafetyLevel {
	level := api.SafetySafe
	for _, a := range actions {
		level = api.MaxSafetyLevel(level, Classify(a))
		if level == api.SafetyDestructive {
			break
		}
	}
	return level
}

// IsDestructive reports whether the action classifies as destructive.
func IsDestructive(a api.Action) bool {
	return Classify(a) == api.SafetyDestructive
}

// serialize renders the action as lowercase text for keyword matching.
// Param keys are sorted so the result is deterministic.
func serialize(a api.Action) string {
	var b strings.Builder
	b.WriteString(a.Type)

	keys := make([]string, 0, len(a.Params))
	for k := range a.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(a.Params[k])
	}
	return strings.ToLower(b.String())
}

func scan(text string) api.SafetyLevel {
	for _, kw := range destructiveKeywords {
		if strings.Contains(text, kw) {
			return api.SafetyDestructive
		}
	}
	for _, kw := range cautionKeywords {
		if strings.Contains(text, kw) {
			return api.SafetyCaution
		}
	}
	return api.SafetySafe
}
