package conversation

import "strings"

// refreshKeywords is the legacy heuristic used when the backend does not send
// action_performed.
// TODO: drop once /api/chat/ always returns action_performed.
var refreshKeywords = []string{"success", "sucesso", "protocolo"}

// RefreshRequested reports whether a settled reply should refresh the
// customer's dashboard.
func RefreshRequested(r Reply) bool {
	if r.ActionPerformed != nil {
		return *r.ActionPerformed
	}
	lower := strings.ToLower(r.Text)
	for _, kw := range refreshKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
