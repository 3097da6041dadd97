package analysis

import (
	"fmt"
	"strings"

	"github.com/harrison/snsindex/internal/config"
	"github.com/harrison/snsindex/internal/fileutil"
	"github.com/harrison/snsindex/internal/logger"
)

// StageDirs is a read-only view of a run's resolved stage directories.
type StageDirs interface {
	Dirs(role string) []string
}

// Sample is one sequenced specimen within a run.
// Its Metadata caches the output files found by ResolveOutputFiles, keyed by
// "<stage>:<pattern>".
type Sample struct {
	*Metadata

	// ID is the sample id from the raw fastq sample sheet
	ID string
	// RunID is the id of the run the sample belongs to
	RunID string

	searchPattern string
	stageDirs     StageDirs
	finder        Finder
	log           logger.Logger
}

// newSample builds a sample. No filesystem access happens here.
func newSample(id, runID string, dirs StageDirs, finder Finder, base logger.Logger, extra []logger.Logger) *Sample {
	s := &Sample{
		Metadata:      NewMetadata(),
		ID:            id,
		RunID:         runID,
		searchPattern: escapeGlob(id) + "*",
		stageDirs:     dirs,
		finder:        finder,
		log:           logger.Named(logger.Multi(append([]logger.Logger{base}, extra...)...), id),
	}
	s.log.LogDebug(fmt.Sprintf("Initialized logging for sample: %s", id))
	s.log.LogDebug(fmt.Sprintf("Analysis is: %s", runID))
	return s
}

// SearchPattern returns the glob every output file of the sample must match.
func (s *Sample) SearchPattern() string {
	return s.searchPattern
}

// OutputRole returns the Metadata role under which ResolveOutputFiles caches
// results for stage and pattern.
func OutputRole(stage, pattern string) string {
	return stage + ":" + pattern
}

// ResolveOutputFiles returns the files anywhere below the stage directory that
// match both pattern and the sample's id token. A stage the run did not resolve
// yields an empty result and an error-level log record, not an error. Several
// matches are returned as-is; callers expecting one file pick among them.
func (s *Sample) ResolveOutputFiles(stage, pattern string) ([]string, error) {
	searchDir, ok := FirstOrNone(s.stageDirs.Dirs(stage))
	if !ok {
		s.log.LogError(fmt.Sprintf("search_dir not found for %s", stage))
		return []string{}, nil
	}

	patterns := []string{pattern, s.searchPattern}
	s.log.LogDebug(fmt.Sprintf("Searching for %v files in %s, dir: %s", patterns, stage, searchDir))

	res, err := s.finder.Find(searchDir, fileutil.FindOptions{
		Include:    patterns,
		Type:       fileutil.TypeFile,
		LevelLimit: fileutil.NoLevelLimit,
		MatchMode:  fileutil.MatchAll,
	})
	if err != nil {
		return nil, &IndexError{Phase: PhaseSampleFiles, Role: OutputRole(stage, pattern), Err: err}
	}
	s.log.LogDebug(fmt.Sprintf("Found: %v", res.Paths))

	if err := s.AddFiles(OutputRole(stage, pattern), res.Paths); err != nil {
		return nil, &IndexError{Phase: PhaseSampleFiles, Role: OutputRole(stage, pattern), Err: err}
	}
	return res.Paths, nil
}

// ResolveStageOutputs resolves every file pattern configured for every stage
// the run found, returning the de-duplicated matches per stage. Stages the run
// did not find are skipped.
func (s *Sample) ResolveStageOutputs(index config.OutputIndex) (map[string][]string, error) {
	out := make(map[string][]string)

	for _, stage := range index.Roles() {
		if _, ok := FirstOrNone(s.stageDirs.Dirs(stage)); !ok {
			s.log.LogDebug(fmt.Sprintf("Skipping %s: stage dir not resolved", stage))
			continue
		}

		seen := make(map[string]bool)
		files := []string{}
		for _, pattern := range index[stage].FilePatterns {
			found, err := s.ResolveOutputFiles(stage, pattern)
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				if !seen[f] {
					seen[f] = true
					files = append(files, f)
				}
			}
		}
		out[stage] = files
	}
	return out, nil
}

// escapeGlob makes every glob metacharacter in s match literally.
func escapeGlob(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[':
			sb.WriteByte('[')
			sb.WriteRune(r)
			sb.WriteByte(']')
		case '\\':
			sb.WriteString(`\\`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// String returns the sample id.
func (s *Sample) String() string {
	return s.ID
}

// Len returns the length of the sample id.
func (s *Sample) Len() int {
	return len(s.ID)
}
