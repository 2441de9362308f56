// Package skills loads the skill catalog: SKILL.md documents with YAML
// front matter, one per directory.
//
//	<root>/<name>/SKILL.md
//
// The built-in catalog is embedded in the binary. An external directory with
// the same layout can be loaded and overlaid on top of it.
package skills

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/HendryAvila/skillgate/internal/errs"
	"gopkg.in/yaml.v3"
)

// FileName is the document every skill directory must contain.
const FileName = "SKILL.md"

//go:embed builtin
var builtinFS embed.FS

// Metadata is the discovery-tier payload of a skill.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version,omitempty"`
}

// Skill is one parsed SKILL.md.
type Skill struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Version     string   `yaml:"version" json:"version,omitempty"`
	Phase       string   `yaml:"phase" json:"phase,omitempty"`
	Utility     bool     `yaml:"utility" json:"utility,omitempty"`
	Core        bool     `yaml:"core" json:"core,omitempty"`
	Supporting  []string `yaml:"supporting" json:"supporting,omitempty"`

	Body   string `yaml:"-" json:"-"`
	Source string `yaml:"-" json:"source"`
}

// Metadata returns the discovery payload.
func (s Skill) Metadata() Metadata {
	return Metadata{Name: s.Name, Description: s.Description, Version: s.Version}
}

// Parse reads a SKILL.md document. Name and description are required.
func Parse(content, source string) (*Skill, error) {
	meta, body, ok := splitFrontMatter(content)
	if !ok {
		return nil, errs.Validation(fmt.Sprintf("%s: missing front matter", source), map[string]any{"source": source})
	}

	var s Skill
	if err := yaml.Unmarshal([]byte(meta), &s); err != nil {
		return nil, errs.Validation(fmt.Sprintf("%s: invalid front matter: %v", source, err), map[string]any{"source": source})
	}
	s.Name = NormalizeName(s.Name)
	s.Description = strings.TrimSpace(s.Description)
	if s.Name == "" {
		return nil, errs.Validation(fmt.Sprintf("%s: name is required", source), map[string]any{"source": source, "field": "name"})
	}
	if s.Description == "" {
		return nil, errs.Validation(fmt.Sprintf("%s: description is required", source), map[string]any{"source": source, "field": "description"})
	}
	for i, sup := range s.Supporting {
		s.Supporting[i] = NormalizeName(sup)
	}
	s.Body = strings.TrimSpace(body)
	s.Source = source
	return &s, nil
}

// splitFrontMatter separates a leading "---" delimited block from the body.
func splitFrontMatter(content string) (string, string, bool) {
	content = strings.TrimPrefix(content, "\ufeff")
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if len(lines) < 3 || strings.TrimSpace(lines[0]) != "---" {
		return "", content, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n"), true
		}
	}
	return "", content, false
}

// NormalizeName lowercases and trims a skill name for lookups.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// --- Catalog ---

// Catalog is an immutable set of skills indexed by name.
type Catalog struct {
	skills []*Skill
	byName map[string]*Skill
}

// Builtin loads the embedded catalog.
func Builtin() (*Catalog, error) {
	return Load(builtinFS, "builtin")
}

// LoadDir loads a catalog from a directory on disk.
func LoadDir(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFound("skills directory", dir)
		}
		return nil, errs.Wrap(err, "opening skills directory")
	}
	if !info.IsDir() {
		return nil, errs.Validationf("skills path %s is not a directory", dir)
	}
	return Load(os.DirFS(dir), ".")
}

// Load reads every <root>/<name>/SKILL.md in fsys. Directories without a
// SKILL.md are skipped. The directory name must match the skill name.
func Load(fsys fs.FS, root string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, errs.Wrap(err, "reading skills root")
	}

	var list []*Skill
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		p := path.Join(root, entry.Name(), FileName)
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, errs.Wrap(err, "reading "+p)
		}
		s, err := Parse(string(data), p)
		if err != nil {
			return nil, err
		}
		if s.Name != NormalizeName(entry.Name()) {
			return nil, errs.Validation(
				fmt.Sprintf("%s: name %q does not match directory %q", p, s.Name, entry.Name()),
				map[string]any{"source": p, "field": "name"},
			)
		}
		list = append(list, s)
	}
	return New(list)
}

// New builds a catalog, rejecting duplicate names and supporting references
// to unknown skills.
func New(list []*Skill) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]*Skill, len(list))}
	for _, s := range list {
		if _, dup := c.byName[s.Name]; dup {
			return nil, errs.Validation(fmt.Sprintf("duplicate skill %q", s.Name), map[string]any{"name": s.Name})
		}
		c.byName[s.Name] = s
		c.skills = append(c.skills, s)
	}
	for _, s := range c.skills {
		for _, sup := range s.Supporting {
			if _, ok := c.byName[sup]; !ok {
				return nil, errs.Validation(
					fmt.Sprintf("skill %q lists unknown supporting skill %q", s.Name, sup),
					map[string]any{"name": s.Name, "supporting": sup},
				)
			}
		}
	}
	sort.Slice(c.skills, func(i, j int) bool { return c.skills[i].Name < c.skills[j].Name })
	return c, nil
}

// Overlay returns a catalog with the skills of over replacing or extending
// those of base.
func Overlay(base, over *Catalog) (*Catalog, error) {
	merged := make(map[string]*Skill)
	for _, s := range base.skills {
		merged[s.Name] = s
	}
	for _, s := range over.skills {
		merged[s.Name] = s
	}
	list := make([]*Skill, 0, len(merged))
	for _, s := range merged {
		list = append(list, s)
	}
	return New(list)
}

// Len returns the number of skills.
func (c *Catalog) Len() int { return len(c.skills) }

// Names returns the skill names in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.skills))
	for i, s := range c.skills {
		out[i] = s.Name
	}
	return out
}

// List returns copies of all skills sorted by name.
func (c *Catalog) List() []Skill {
	out := make([]Skill, len(c.skills))
	for i, s := range c.skills {
		out[i] = *s
	}
	return out
}

// Get looks up a skill by name.
func (c *Catalog) Get(name string) (Skill, bool) {
	s, ok := c.byName[NormalizeName(name)]
	if !ok {
		return Skill{}, false
	}
	return *s, true
}

// Metadata returns the discovery payload for a skill.
func (c *Catalog) Metadata(name string) (Metadata, error) {
	s, ok := c.Get(name)
	if !ok {
		return Metadata{}, errs.NotFound("skill", name)
	}
	return s.Metadata(), nil
}

// Content returns the skill's instructions without front matter.
func (c *Catalog) Content(name string) (string, error) {
	s, ok := c.Get(name)
	if !ok {
		return "", errs.NotFound("skill", name)
	}
	return s.Body, nil
}

// ForPhase returns the skills bound to a workflow phase.
func (c *Catalog) ForPhase(phase string) []Skill {
	var out []Skill
	for _, s := range c.skills {
		if s.Phase == phase {
			out = append(out, *s)
		}
	}
	return out
}

// UtilityNames returns the names of utility skills.
func (c *Catalog) UtilityNames() []string {
	var out []string
	for _, s := range c.skills {
		if s.Utility {
			out = append(out, s.Name)
		}
	}
	return out
}

// IsCore reports whether a skill stays loaded across phase transitions.
func (c *Catalog) IsCore(name string) bool {
	s, ok := c.byName[NormalizeName(name)]
	return ok && s.Core
}
