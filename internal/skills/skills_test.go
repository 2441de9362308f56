package skills

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/HendryAvila/skillgate/internal/errs"
)

const sampleSkill = `---
name: Deploy
description: Ship a release.
version: 0.1.0
phase: release
supporting:
  - Notes
---
# Deploy

Run the pipeline.
`

// --- Parse ---

func TestParse(t *testing.T) {
	s, err := Parse(sampleSkill, "deploy/SKILL.md")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Name != "deploy" {
		t.Errorf("Name = %q, want normalized deploy", s.Name)
	}
	if s.Version != "0.1.0" || s.Phase != "release" {
		t.Errorf("version/phase = %q/%q", s.Version, s.Phase)
	}
	if !reflect.DeepEqual(s.Supporting, []string{"notes"}) {
		t.Errorf("Supporting = %v", s.Supporting)
	}
	if s.Body != "# Deploy\n\nRun the pipeline." {
		t.Errorf("Body = %q", s.Body)
	}
}

func TestParse_CRLF(t *testing.T) {
	s, err := Parse("---\r\nname: a\r\ndescription: b\r\n---\r\nbody\r\n", "a")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Name != "a" || s.Description != "b" {
		t.Errorf("parsed %+v", s)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no front matter", "# Title\n\nbody"},
		{"unterminated", "---\nname: x\ndescription: y\n"},
		{"missing name", "---\ndescription: y\n---\nbody"},
		{"missing description", "---\nname: x\n---\nbody"},
		{"bad yaml", "---\nname: [x\n---\nbody"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.content, "x/SKILL.md"); !errs.Has(err, errs.CodeValidation) {
				t.Errorf("err = %v, want validation_error", err)
			}
		})
	}
}

// --- Builtin catalog ---

func TestBuiltin(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	want := []string{
		"codebase-analysis", "ears-specification", "git-workflow", "planning",
		"review", "spec-forge", "troubleshooting", "work",
	}
	if !reflect.DeepEqual(c.Names(), want) {
		t.Errorf("Names = %v, want %v", c.Names(), want)
	}

	for _, phase := range []string{"spec-forge", "planning", "work", "review"} {
		if got := c.ForPhase(phase); len(got) != 1 || got[0].Name != phase {
			t.Errorf("ForPhase(%s) = %v", phase, got)
		}
	}
	if got := c.UtilityNames(); !reflect.DeepEqual(got, []string{"codebase-analysis", "git-workflow", "troubleshooting"}) {
		t.Errorf("UtilityNames = %v", got)
	}
	if !c.IsCore("codebase-analysis") || c.IsCore("work") {
		t.Error("IsCore mismatch")
	}
}

func TestCatalog_MetadataAndContent(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}

	md, err := c.Metadata("EARS-Specification")
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if md.Name != "ears-specification" || md.Version == "" || md.Description == "" {
		t.Errorf("Metadata = %+v", md)
	}

	body, err := c.Content("work")
	if err != nil || body == "" {
		t.Fatalf("Content(work) = %q, %v", body, err)
	}

	if _, err := c.Metadata("nope"); !errs.Has(err, errs.CodeNotFound) {
		t.Errorf("Metadata(nope) = %v, want not_found", err)
	}
	if _, err := c.Content("nope"); !errs.Has(err, errs.CodeNotFound) {
		t.Errorf("Content(nope) = %v, want not_found", err)
	}
}

// --- Load / LoadDir ---

func TestLoad_MapFS(t *testing.T) {
	fsys := fstest.MapFS{
		"skills/deploy/SKILL.md": {Data: []byte(sampleSkill)},
		"skills/notes/SKILL.md":  {Data: []byte("---\nname: notes\ndescription: Release notes.\n---\nWrite notes.")},
		"skills/empty/README.md": {Data: []byte("not a skill")},
		"skills/loose.md":        {Data: []byte("ignored")},
	}
	c, err := Load(fsys, "skills")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(c.Names(), []string{"deploy", "notes"}) {
		t.Errorf("Names = %v", c.Names())
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{"name mismatch", fstest.MapFS{
			"s/other/SKILL.md": {Data: []byte("---\nname: deploy\ndescription: d\n---\n")},
		}},
		{"unknown supporting", fstest.MapFS{
			"s/deploy/SKILL.md": {Data: []byte(sampleSkill)},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.fsys, "s"); !errs.Has(err, errs.CodeValidation) {
				t.Errorf("err = %v, want validation_error", err)
			}
		})
	}
}

func TestNew_Duplicate(t *testing.T) {
	a := &Skill{Name: "a", Description: "x"}
	if _, err := New([]*Skill{a, a}); !errs.Has(err, errs.CodeValidation) {
		t.Errorf("err = %v, want validation_error", err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "release"), 0o755); err != nil {
		t.Fatal(err)
	}
	doc := "---\nname: release\ndescription: Cut a release.\nutility: true\n---\nSteps."
	if err := os.WriteFile(filepath.Join(dir, "release", FileName), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if s, ok := c.Get("release"); !ok || !s.Utility {
		t.Errorf("Get(release) = %+v, %v", s, ok)
	}

	if _, err := LoadDir(filepath.Join(dir, "missing")); !errs.Has(err, errs.CodeNotFound) {
		t.Errorf("LoadDir(missing) = %v, want not_found", err)
	}
}

func TestOverlay(t *testing.T) {
	base, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	custom := &Skill{Name: "work", Description: "Team-specific work rules.", Phase: "work"}
	extra := &Skill{Name: "release", Description: "Cut a release.", Utility: true}
	over, err := New([]*Skill{custom, extra})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	merged, err := Overlay(base, over)
	if err != nil {
		t.Fatalf("Overlay: %v", err)
	}
	if merged.Len() != base.Len()+1 {
		t.Errorf("Len = %d, want %d", merged.Len(), base.Len()+1)
	}
	if md, _ := merged.Metadata("work"); md.Description != "Team-specific work rules." {
		t.Errorf("work not overridden: %+v", md)
	}
}
