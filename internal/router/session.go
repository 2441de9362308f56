package router

// DefaultMaxActivities bounds SessionContext.RecentActivities.
const DefaultMaxActivities = 5

// SessionContext is the router's view of the interactive session.
// It is owned by exactly one Router and only changes through UpdateSession.
type SessionContext struct {
	CurrentPhase     string            `json:"current_phase,omitempty"`
	RecentActivities []string          `json:"recent_activities"`
	ActiveFiles      []string          `json:"active_files"`
	WorkflowProgress map[string]string `json:"workflow_progress"`
}

// SessionUpdate describes an explicit change to the session. Zero fields
// leave the session untouched.
type SessionUpdate struct {
	// CurrentPhase replaces the current phase when non-empty.
	CurrentPhase string `json:"current_phase,omitempty"`
	// Activities are appended in order; the oldest entries fall off once the
	// bound is reached.
	Activities []string `json:"activities,omitempty"`
	// ActiveFiles replaces the active file list when non-nil.
	ActiveFiles []string `json:"active_files,omitempty"`
	// Progress entries are merged into WorkflowProgress.
	Progress map[string]string `json:"progress,omitempty"`
}

// LastActivity returns the most recent activity, or "".
func (s SessionContext) LastActivity() string {
	if len(s.RecentActivities) == 0 {
		return ""
	}
	return s.RecentActivities[len(s.RecentActivities)-1]
}

// clone returns a deep copy.
func (s SessionContext) clone() SessionContext {
	out := SessionContext{
		CurrentPhase:     s.CurrentPhase,
		RecentActivities: append([]string(nil), s.RecentActivities...),
		ActiveFiles:      append([]string(nil), s.ActiveFiles...),
		WorkflowProgress: make(map[string]string, len(s.WorkflowProgress)),
	}
	for k, v := range s.WorkflowProgress {
		out.WorkflowProgress[k] = v
	}
	return out
}

// apply merges u into s, keeping at most maxActivities recent activities.
func (s *SessionContext) apply(u SessionUpdate, maxActivities int) {
	if u.CurrentPhase != "" {
		s.CurrentPhase = u.CurrentPhase
	}
	for _, a := range u.Activities {
		if a == "" {
			continue
		}
		s.RecentActivities = append(s.RecentActivities, a)
	}
	if over := len(s.RecentActivities) - maxActivities; over > 0 {
		s.RecentActivities = append([]string(nil), s.RecentActivities[over:]...)
	}
	if u.ActiveFiles != nil {
		s.ActiveFiles = append([]string(nil), u.ActiveFiles...)
	}
	if len(u.Progress) > 0 && s.WorkflowProgress == nil {
		s.WorkflowProgress = make(map[string]string, len(u.Progress))
	}
	for k, v := range u.Progress {
		s.WorkflowProgress[k] = v
	}
}
