package budget

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/HendryAvila/skillgate/internal/errs"
	"github.com/HendryAvila/skillgate/internal/tokens"
)

// Options configure a Tracker. Content and Files are optional: without a
// content source every activation costs ActivationMax, and without a file
// source execution files cannot be loaded.
type Options struct {
	Config  Config
	Counter tokens.Counter
	Content ContentSource
	Files   FileSource
}

type entry struct {
	item Item
	seq  uint64 // recency for skills, load order for files
}

// Tracker owns the budget state for one session.
// It is not safe for concurrent use.
type Tracker struct {
	cfg     Config
	counter tokens.Counter
	content ContentSource
	files   FileSource

	discovered map[string]*entry
	active     map[string]*entry
	loaded     map[string]*entry

	total     int
	seq       uint64
	evictions int
}

// NewTracker validates the configuration and returns an empty tracker.
func NewTracker(opts Options) (*Tracker, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, errs.Validation(err.Error(), nil)
	}
	counter := opts.Counter
	if counter == nil {
		counter = tokens.Heuristic{}
	}
	return &Tracker{
		cfg:        opts.Config,
		counter:    counter,
		content:    opts.Content,
		files:      opts.Files,
		discovered: make(map[string]*entry),
		active:     make(map[string]*entry),
		loaded:     make(map[string]*entry),
	}, nil
}

// Config returns the tracker configuration.
func (t *Tracker) Config() Config { return t.cfg }

// Total returns the tokens currently held.
func (t *Tracker) Total() int { return t.total }

// IsActive reports whether id is in the activation tier.
func (t *Tracker) IsActive(id string) bool { return t.active[id] != nil }

// --- Discovery ---

// LoadDiscovery adds id's metadata at the fixed discovery cost. Loading an
// already discovered id is a no-op and reports false.
func (t *Tracker) LoadDiscovery(id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, errs.Validationf("skill id is required")
	}
	if t.discovered[id] != nil {
		return false, nil
	}
	if _, err := t.admit(id, t.cfg.DiscoveryCost); err != nil {
		return false, err
	}
	t.discovered[id] = t.newEntry(id, TierDiscovery, t.cfg.DiscoveryCost, "")
	t.total += t.cfg.DiscoveryCost
	return true, nil
}

// --- Activation ---

// Activate loads id's full content. The id must be discovered. Activating an
// active skill refreshes its recency and reports AlreadyActive.
func (t *Tracker) Activate(id string) (*ActivationResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errs.Validationf("skill id is required")
	}
	if t.discovered[id] == nil {
		return nil, errs.NotFound("skill", id)
	}
	if e := t.active[id]; e != nil {
		e.seq = t.next()
		return &ActivationResult{ID: id, AlreadyActive: true, TokenCost: e.item.TokenCost, TotalTokens: t.total}, nil
	}

	cost, err := t.activationCost(id)
	if err != nil {
		return nil, err
	}
	evicted, err := t.admit(id, cost)
	if err != nil {
		return nil, err
	}
	t.active[id] = t.newEntry(id, TierActivation, cost, "")
	t.total += cost

	return &ActivationResult{ID: id, TokenCost: cost, Evicted: evicted, TotalTokens: t.total}, nil
}

// Deactivate frees exactly id's recorded cost. Deactivating a skill that is
// not active succeeds with AlreadyInactive and frees nothing. Execution files
// owned by the skill stay loaded and are listed in FilesKept.
func (t *Tracker) Deactivate(id string) DeactivationResult {
	id = strings.TrimSpace(id)
	e := t.active[id]
	if e == nil {
		return DeactivationResult{ID: id, AlreadyInactive: true, TotalTokens: t.total}
	}
	delete(t.active, id)
	t.total -= e.item.TokenCost
	return DeactivationResult{ID: id, TokensFreed: e.item.TokenCost, TotalTokens: t.total, FilesKept: t.FilesOwnedBy(id)}
}

func (t *Tracker) activationCost(id string) (int, error) {
	if t.content == nil {
		return t.cfg.ActivationMax, nil
	}
	text, err := t.content.Content(id)
	if err != nil {
		return 0, errs.Wrap(err, "reading content for skill "+id)
	}
	return capCost(t.counter.Count(text), t.cfg.ActivationMax), nil
}

// --- Execution files ---

// LoadExecutionFile loads path on behalf of owner, which must be discovered.
// Paths are tracked by their canonical key, so reloading a loaded file under
// any spelling is a no-op and reports AlreadyLoaded.
func (t *Tracker) LoadExecutionFile(path, owner string) (*FileLoadResult, error) {
	path = strings.TrimSpace(path)
	owner = strings.TrimSpace(owner)
	if path == "" {
		return nil, errs.Validationf("file path is required")
	}
	if owner == "" {
		return nil, errs.Validationf("owner skill is required")
	}
	if t.discovered[owner] == nil {
		return nil, errs.NotFound("skill", owner)
	}
	if t.files == nil {
		return nil, errs.Validationf("no file source configured")
	}
	key, err := t.files.Key(path)
	if err != nil {
		return nil, err
	}
	if e := t.loaded[key]; e != nil {
		return &FileLoadResult{Path: key, Owner: e.item.Owner, AlreadyLoaded: true, TokenCost: e.item.TokenCost, TotalTokens: t.total}, nil
	}

	text, err := t.files.Read(key)
	if err != nil {
		return nil, errs.Wrap(err, "reading execution file "+path)
	}
	cost := capCost(t.counter.Count(text), t.cfg.ExecutionMax)

	evicted, err := t.admit(key, cost)
	if err != nil {
		return nil, err
	}
	t.loaded[key] = t.newEntry(key, TierExecution, cost, owner)
	t.total += cost

	return &FileLoadResult{Path: key, Owner: owner, TokenCost: cost, Evicted: evicted, TotalTokens: t.total}, nil
}

// UnloadExecutionFiles frees the given paths. Paths that are not loaded are
// reported in NotLoaded as given; unloaded paths are reported by key.
func (t *Tracker) UnloadExecutionFiles(paths []string) UnloadResult {
	res := UnloadResult{Unloaded: []string{}}
	for _, p := range paths {
		p = strings.TrimSpace(p)
		key := t.fileKey(p)
		e := t.loaded[key]
		if e == nil {
			res.NotLoaded = append(res.NotLoaded, p)
			continue
		}
		delete(t.loaded, key)
		t.total -= e.item.TokenCost
		res.TokensFreed += e.item.TokenCost
		res.Unloaded = append(res.Unloaded, key)
	}
	res.TotalTokens = t.total
	return res
}

// fileKey canonicalizes path for lookups. Paths the source rejects cannot be
// loaded, so they are returned trimmed and simply miss.
func (t *Tracker) fileKey(path string) string {
	path = strings.TrimSpace(path)
	if t.files == nil {
		return path
	}
	if key, err := t.files.Key(path); err == nil {
		return key
	}
	return path
}

// FilesOwnedBy returns the loaded paths owned by skill, oldest first.
func (t *Tracker) FilesOwnedBy(skill string) []string {
	var out []string
	for _, e := range sortedBySeq(t.loaded) {
		if e.item.Owner == skill {
			out = append(out, e.item.ID)
		}
	}
	return out
}

// --- Admission and eviction ---

// PlanActivation reports what Activate(id) would evict without changing any
// state. An active skill plans no evictions.
func (t *Tracker) PlanActivation(id string) ([]Eviction, error) {
	id = strings.TrimSpace(id)
	if t.discovered[id] == nil {
		return nil, errs.NotFound("skill", id)
	}
	if t.active[id] != nil {
		return nil, nil
	}
	cost, err := t.activationCost(id)
	if err != nil {
		return nil, err
	}
	victims, err := t.victims(id, cost)
	if err != nil {
		return nil, err
	}
	out := make([]Eviction, len(victims))
	for i, e := range victims {
		out[i] = Eviction{ID: e.item.ID, Tier: e.item.Tier, TokensFreed: e.item.TokenCost}
	}
	return out, nil
}

// admit makes room for cost tokens. A failed admission leaves the state
// untouched.
func (t *Tracker) admit(id string, cost int) ([]Eviction, error) {
	victims, err := t.victims(id, cost)
	if err != nil {
		return nil, err
	}
	var evicted []Eviction
	for _, e := range victims {
		switch e.item.Tier {
		case TierExecution:
			delete(t.loaded, e.item.ID)
		case TierActivation:
			delete(t.active, e.item.ID)
		}
		t.total -= e.item.TokenCost
		t.evictions++
		evicted = append(evicted, Eviction{ID: e.item.ID, Tier: e.item.Tier, TokensFreed: e.item.TokenCost})
	}
	return evicted, nil
}

// victims picks the entries to evict for cost tokens: execution files oldest
// first, then active skills least recently used first. Discovery is pinned.
func (t *Tracker) victims(id string, cost int) ([]*entry, error) {
	if t.total+cost <= t.cfg.Ceiling {
		return nil, nil
	}

	evictable := 0
	for _, e := range t.active {
		evictable += e.item.TokenCost
	}
	for _, e := range t.loaded {
		evictable += e.item.TokenCost
	}
	pinned := t.total - evictable
	if pinned+cost > t.cfg.Ceiling {
		return nil, errs.BudgetExceeded(id, cost, t.cfg.Ceiling-pinned)
	}

	var out []*entry
	total := t.total
	for _, e := range append(sortedBySeq(t.loaded), sortedBySeq(t.active)...) {
		if total+cost <= t.cfg.Ceiling {
			break
		}
		total -= e.item.TokenCost
		out = append(out, e)
	}
	return out, nil
}

// --- Status ---

// Status returns a snapshot. It has no side effects.
func (t *Tracker) Status() Status {
	st := Status{
		TotalTokens:    t.total,
		Ceiling:        t.cfg.Ceiling,
		Available:      t.cfg.Ceiling - t.total,
		ActiveSkills:   []string{},
		InactiveSkills: []string{},
		ExecutionFiles: []Item{},
		Evictions:      t.evictions,
	}

	ratio := float64(t.total) / float64(t.cfg.Ceiling)
	st.UtilizationPercent = math.Round(ratio*1000) / 10
	switch {
	case ratio >= 1:
		st.State = StateExceeded
	case ratio >= t.cfg.WarningThreshold:
		st.State = StateWarning
	default:
		st.State = StateOK
	}

	for _, e := range sortedBySeq(t.active) {
		st.ActiveSkills = append(st.ActiveSkills, e.item.ID)
	}
	for _, e := range sortedBySeq(t.discovered) {
		if t.active[e.item.ID] == nil {
			st.InactiveSkills = append(st.InactiveSkills, e.item.ID)
		}
	}
	for _, e := range sortedBySeq(t.loaded) {
		st.ExecutionFiles = append(st.ExecutionFiles, e.item)
	}

	st.Tiers = []TierUsage{
		usage(TierDiscovery, t.discovered),
		usage(TierActivation, t.active),
		usage(TierExecution, t.loaded),
	}
	return st
}

func usage(tier Tier, m map[string]*entry) TierUsage {
	u := TierUsage{Tier: tier, Items: len(m)}
	for _, e := range m {
		u.Tokens += e.item.TokenCost
	}
	return u
}

// --- helpers ---

func (t *Tracker) next() uint64 {
	t.seq++
	return t.seq
}

func (t *Tracker) newEntry(id string, tier Tier, cost int, owner string) *entry {
	return &entry{
		item: Item{
			ID:        id,
			Tier:      tier,
			TokenCost: cost,
			LoadedAt:  timeNow().UTC().Format(time.RFC3339),
			Owner:     owner,
		},
		seq: t.next(),
	}
}

// sortedBySeq returns entries from oldest to newest.
func sortedBySeq(m map[string]*entry) []*entry {
	out := make([]*entry, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// capCost bounds a counted cost to [1, limit].
func capCost(n, limit int) int {
	if n < 1 {
		return 1
	}
	if n > limit {
		return limit
	}
	return n
}
