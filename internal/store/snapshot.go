package store

import (
	"sort"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/harrison/snsindex/internal/analysis"
)

// Snapshot is the persisted form of an indexed run.
type Snapshot struct {
	ID        string
	RunID     string
	ResultsID string
	RunDir    string
	CreatedAt time.Time

	// Dirs and Files hold every run-level role, including unresolved ones
	Dirs  map[string][]string
	Files map[string][]string

	// Samples keeps sample sheet order
	Samples []string

	// SampleOutputs maps sample id to the output roles resolved on it
	SampleOutputs map[string]map[string][]string
}

// SnapshotSummary is a row of the snapshot history.
type SnapshotSummary struct {
	ID          string
	RunID       string
	ResultsID   string
	RunDir      string
	SampleCount int
	CreatedAt   time.Time
}

// SnapshotFromRun captures the current state of run. Per-sample outputs are
// included only for roles already resolved on each sample.
func SnapshotFromRun(run *analysis.Run) *Snapshot {
	snap := &Snapshot{
		RunID:         run.ID,
		ResultsID:     run.ResultsID,
		RunDir:        run.Dir,
		Dirs:          make(map[string][]string),
		Files:         make(map[string][]string),
		Samples:       run.SampleIDs(),
		SampleOutputs: make(map[string]map[string][]string),
	}

	for _, role := range run.DirRoles() {
		snap.Dirs[role] = run.Dirs(role)
	}
	for _, role := range run.FileRoles() {
		snap.Files[role] = run.Files(role)
	}

	for _, sample := range run.Samples() {
		roles := sample.FileRoles()
		if len(roles) == 0 {
			continue
		}
		outputs := make(map[string][]string, len(roles))
		for _, role := range roles {
			if files := sample.Files(role); len(files) > 0 {
				outputs[role] = files
			}
		}
		if len(outputs) > 0 {
			snap.SampleOutputs[sample.ID] = outputs
		}
	}

	return snap
}

// SameContents reports whether two snapshots indexed the same paths, ignoring
// their id and creation time.
func SameContents(a, b *Snapshot) bool {
	return cmp.Equal(a, b, cmpopts.IgnoreFields(Snapshot{}, "ID", "CreatedAt"), cmpopts.EquateEmpty())
}

// Diff describes how b differs from a, ignoring id and creation time. It is
// empty when SameContents is true.
func Diff(a, b *Snapshot) string {
	return cmp.Diff(a, b, cmpopts.IgnoreFields(Snapshot{}, "ID", "CreatedAt"), cmpopts.EquateEmpty())
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
