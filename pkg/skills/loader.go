package skills

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/skillskit/skillskit/pkg/frontmatter"
	"github.com/skillskit/skillskit/pkg/logger"
	"github.com/skillskit/skillskit/pkg/telemetry"
)

const (
	skillFileName = "SKILL.md"

	// DefaultSkillsDir is the skills root scanned when no other is configured
	DefaultSkillsDir = "skills"
	// DefaultSnapshotName is the conventional file name of a generated snapshot
	DefaultSnapshotName = "skills-data.generated.json"

	defaultGroupKey = "default"
)

// DefaultExcludes are directory name patterns never treated as skills
var DefaultExcludes = []string{"node_modules", ".*"}

// ErrSkillNotFound is returned when no loaded skill has the requested name
var ErrSkillNotFound = errors.New("skill not found")

var tracer = telemetry.Tracer("skillskit.skills")

// Loader loads skills from a snapshot or a skills root and caches the default
// collection. It is safe for concurrent use.
type Loader struct {
	skillsDir    string
	snapshotPath string
	dialect      frontmatter.Dialect
	excludes     []string

	group singleflight.Group

	mu         sync.RWMutex
	cached     []*ParsedSkill
	loaded     bool
	generation uint64
}

// Option is a function that configures a Loader
type Option func(*Loader) error

// WithSkillsDir sets the default skills root
func WithSkillsDir(dir string) Option {
	return func(l *Loader) error {
		if dir == "" {
			return errors.New("skills directory cannot be empty")
		}
		l.skillsDir = dir
		return nil
	}
}

// WithSnapshotPath sets the pre-generated snapshot consulted before scanning.
// An empty path disables the snapshot.
func WithSnapshotPath(path string) Option {
	return func(l *Loader) error {
		l.snapshotPath = path
		return nil
	}
}

// WithDialect selects the frontmatter dialect used for SKILL.md files
func WithDialect(dialect frontmatter.Dialect) Option {
	return func(l *Loader) error {
		switch dialect {
		case frontmatter.DialectCompat, frontmatter.DialectYAML:
			l.dialect = dialect
			return nil
		default:
			return errors.Errorf("unknown frontmatter dialect %q", dialect)
		}
	}
}

// WithExcludes replaces the directory name patterns skipped while scanning.
// Patterns use doublestar syntax and are matched against the entry name.
func WithExcludes(patterns ...string) Option {
	return func(l *Loader) error {
		for _, pattern := range patterns {
			if !doublestar.ValidatePattern(pattern) {
				return errors.Errorf("invalid exclude pattern %q", pattern)
			}
		}
		l.excludes = append([]string{}, patterns...)
		return nil
	}
}

// NewLoader creates a loader reading DefaultSkillsDir with the compat dialect
// and no snapshot unless configured otherwise.
func NewLoader(opts ...Option) (*Loader, error) {
	l := &Loader{
		skillsDir: DefaultSkillsDir,
		dialect:   frontmatter.DialectCompat,
		excludes:  append([]string{}, DefaultExcludes...),
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// SkillsDir returns the default skills root
func (l *Loader) SkillsDir() string {
	return l.skillsDir
}

// SnapshotPath returns the configured snapshot path, empty when disabled
func (l *Loader) SnapshotPath() string {
	return l.snapshotPath
}

// LoadAll returns every skill. A non-empty sourceDir is scanned directly,
// bypassing cache and snapshot; if it cannot be read the failure is logged
// and an empty list returned. Otherwise the cached collection is returned,
// populated on first use from the snapshot or, failing that, a scan of the
// skills root. Only an unreadable skills root is reported as an error.
func (l *Loader) LoadAll(ctx context.Context, sourceDir string) ([]*ParsedSkill, error) {
	ctx, span := tracer.Start(ctx, "skills.load_all", trace.WithAttributes(
		telemetry.SourceDirKey.String(sourceDir),
	))
	defer span.End()

	if sourceDir != "" {
		skills, err := l.scanDir(ctx, sourceDir)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("dir", sourceDir).Error("failed to load skills")
			return []*ParsedSkill{}, nil
		}
		return skills, nil
	}

	if skills, ok := l.cachedSkills(); ok {
		return skills, nil
	}

	v, err, _ := l.group.Do(defaultGroupKey, func() (any, error) {
		if skills, ok := l.cachedSkills(); ok {
			return skills, nil
		}

		l.mu.RLock()
		generation := l.generation
		l.mu.RUnlock()

		skills, err := l.loadDefault(ctx)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		if l.generation == generation {
			l.cached = skills
			l.loaded = true
		}
		l.mu.Unlock()

		return skills, nil
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	skills := v.([]*ParsedSkill)
	span.SetAttributes(telemetry.SkillsCountKey.Int(len(skills)))
	return skills, nil
}

// Scan reads the skills root directly, ignoring cache and snapshot. Unlike
// LoadAll with a source directory, an unreadable root is returned as an error.
func (l *Loader) Scan(ctx context.Context) ([]*ParsedSkill, error) {
	ctx, span := tracer.Start(ctx, "skills.scan", trace.WithAttributes(
		telemetry.SourceDirKey.String(l.skillsDir),
	))
	defer span.End()

	skills, err := l.scanDir(ctx, l.skillsDir)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	return skills, nil
}

// Invalidate drops the cached collection so the next LoadAll rebuilds it.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cached = nil
	l.loaded = false
	l.generation++
}

// Reload invalidates the cache and loads the default collection again.
func (l *Loader) Reload(ctx context.Context) ([]*ParsedSkill, error) {
	l.Invalidate()
	return l.LoadAll(ctx, "")
}

// GetSkillByName returns the first skill whose name matches exactly.
func (l *Loader) GetSkillByName(ctx context.Context, name, sourceDir string) (*ParsedSkill, error) {
	skills, err := l.LoadAll(ctx, sourceDir)
	if err != nil {
		return nil, err
	}

	for _, skill := range skills {
		if skill.Metadata.Name == name {
			return skill, nil
		}
	}

	return nil, errors.Wrapf(ErrSkillNotFound, "skill '%s'", name)
}

// GetSkillsByCategory returns the skills whose category matches ignoring
// case. Skills without a category never match.
func (l *Loader) GetSkillsByCategory(ctx context.Context, category, sourceDir string) ([]*ParsedSkill, error) {
	skills, err := l.LoadAll(ctx, sourceDir)
	if err != nil {
		return nil, err
	}

	matched := []*ParsedSkill{}
	for _, skill := range skills {
		if skill.Metadata.Category != "" && strings.EqualFold(skill.Metadata.Category, category) {
			matched = append(matched, skill)
		}
	}

	return matched, nil
}

// LoadSkill loads the skill in dir from its SKILL.md and folder metadata.
func (l *Loader) LoadSkill(ctx context.Context, dir string) (*ParsedSkill, error) {
	ctx = logger.WithSkill(ctx, dir)

	content, err := os.ReadFile(filepath.Join(dir, skillFileName))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	doc, err := frontmatter.ParseDialect(string(content), l.dialect)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse skill file")
	}

	return &ParsedSkill{
		Metadata: MergeMetadata(doc.Frontmatter, ReadFolderMetadata(ctx, dir)),
		Content:  doc.Body,
		Path:     dir,
	}, nil
}

func (l *Loader) cachedSkills() ([]*ParsedSkill, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cached, l.loaded
}

func (l *Loader) loadDefault(ctx context.Context) ([]*ParsedSkill, error) {
	if l.snapshotPath != "" {
		if _, err := os.Stat(l.snapshotPath); err == nil {
			skills, err := ReadSnapshot(l.snapshotPath)
			if err == nil {
				logger.G(ctx).WithField("snapshot", l.snapshotPath).WithField("count", len(skills)).Debug("loaded skills from snapshot")
				return skills, nil
			}
			logger.G(ctx).WithError(err).WithField("snapshot", l.snapshotPath).Warn("failed to load snapshot, scanning skills directory")
		}
	}

	return l.scanDir(ctx, l.skillsDir)
}

// scanDir loads every immediate subdirectory of dir. Directories that cannot
// be loaded are logged and skipped; only failing to list dir is an error.
func (l *Loader) scanDir(ctx context.Context, dir string) ([]*ParsedSkill, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read skills directory %s", dir)
	}

	skills := make([]*ParsedSkill, 0, len(entries))
	for _, entry := range entries {
		if l.excluded(entry.Name()) {
			continue
		}

		entryPath := filepath.Join(dir, entry.Name())

		info, err := os.Stat(entryPath)
		if err != nil || !info.IsDir() {
			continue
		}

		skill, err := l.LoadSkill(ctx, entryPath)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("dir", entryPath).Warn("skipping skill directory")
			continue
		}

		skills = append(skills, skill)
	}

	return skills, nil
}

func (l *Loader) excluded(name string) bool {
	for _, pattern := range l.excludes {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
