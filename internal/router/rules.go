package router

// NextSkillRule says that after an activity mentioning Activity, the listed
// skills are the natural next step in the workflow.
type NextSkillRule struct {
	Activity string   `yaml:"activity" json:"activity"`
	Skills   []string `yaml:"skills" json:"skills"`
}

// ErrorPhrase routes error-flavoured input to a skill, optionally tagging
// the match with a persona for the host to adopt.
type ErrorPhrase struct {
	Phrase  string `yaml:"phrase" json:"phrase"`
	Skill   string `yaml:"skill" json:"skill"`
	Persona string `yaml:"persona,omitempty" json:"persona,omitempty"`
}

// Rules are the fixed tables the context adjuster consults.
type Rules struct {
	NextSkills      []NextSkillRule
	ErrorPhrases    []ErrorPhrase
	UrgencyKeywords []string
}

// Adjustment bonuses.
const (
	SequentialBonus = 10
	ErrorBonus      = 15
	UrgencyBonus    = 8
	RepetitionBonus = 5
)

// DefaultRules returns the built-in adjustment tables.
func DefaultRules() Rules {
	return Rules{
		NextSkills: []NextSkillRule{
			{Activity: "spec", Skills: []string{"ears-specification", "planning"}},
			{Activity: "requirements", Skills: []string{"planning", "work"}},
			{Activity: "plan", Skills: []string{"work"}},
			{Activity: "tasks", Skills: []string{"work"}},
			{Activity: "implement", Skills: []string{"review"}},
			{Activity: "coded", Skills: []string{"review"}},
			{Activity: "fixed", Skills: []string{"review"}},
			{Activity: "review", Skills: []string{"git-workflow"}},
		},
		ErrorPhrases: []ErrorPhrase{
			{Phrase: "error", Skill: "troubleshooting", Persona: "debugger"},
			{Phrase: "exception", Skill: "troubleshooting", Persona: "debugger"},
			{Phrase: "crash", Skill: "troubleshooting", Persona: "debugger"},
			{Phrase: "stack trace", Skill: "troubleshooting"},
			{Phrase: "failing test", Skill: "work", Persona: "tester"},
			{Phrase: "security vulnerability", Skill: "review", Persona: "security-auditor"},
			{Phrase: "merge conflict", Skill: "git-workflow"},
		},
		UrgencyKeywords: []string{"critical", "urgent", "emergency", "production", "blocker"},
	}
}
