package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/harrison/snsindex/internal/config"
	"github.com/harrison/snsindex/internal/fileutil"
	"github.com/harrison/snsindex/internal/logger"
)

// Run-level file roles.
const (
	RolePairedSamples      = "paired_samples"
	RoleSamplesFastqRaw    = "samples_fastq_raw"
	RoleSummaryCombinedWES = "summary_combined_wes"
	RoleSettings           = "settings"
	RoleTargetsBED         = "targets_bed"
)

// fileRole describes how one run-level file is located under the run root.
type fileRole struct {
	name        string
	include     string
	exclude     string
	description string
	required    bool // a miss is logged at error level
}

// runFileRoles is resolved in this order during construction.
var runFileRoles = []fileRole{
	{name: RolePairedSamples, include: "*samples.pairs.csv", description: "paired samples sheet"},
	{name: RoleSamplesFastqRaw, include: "*samples.fastq-raw.csv", description: "raw fastq sample sheet", required: true},
	{name: RoleSummaryCombinedWES, include: "*summary-combined.wes.csv", description: "combined WES summary table"},
	{name: RoleSettings, include: "*settings.txt", description: "analysis settings"},
	{name: RoleTargetsBED, include: "*.bed", exclude: "*.pad10.bed", description: "target regions BED", required: true},
}

// RunFileRoles returns the run-level file role names in resolution order.
func RunFileRoles() []string {
	names := make([]string, 0, len(runFileRoles))
	for _, r := range runFileRoles {
		names = append(names, r.name)
	}
	return names
}

// RequiredRunFileRoles returns the run-level roles whose absence is an error
// level event: without them samples or target regions are unknown.
func RequiredRunFileRoles() []string {
	var names []string
	for _, r := range runFileRoles {
		if r.required {
			names = append(names, r.name)
		}
	}
	return names
}

// Finder is the filesystem search used to resolve roles.
type Finder interface {
	Find(dir string, opts fileutil.FindOptions) (*fileutil.FindResult, error)
}

// FinderFunc adapts a function to the Finder interface.
type FinderFunc func(dir string, opts fileutil.FindOptions) (*fileutil.FindResult, error)

// Find calls f(dir, opts).
func (f FinderFunc) Find(dir string, opts fileutil.FindOptions) (*fileutil.FindResult, error) {
	return f(dir, opts)
}

// DefaultFinder searches the local filesystem.
var DefaultFinder Finder = FinderFunc(fileutil.Find)

// RunOption configures NewRun.
type RunOption func(*runOptions)

type runOptions struct {
	resultsID   string
	base        logger.Logger
	extra       []logger.Logger
	finder      Finder
	index       config.OutputIndex
	concurrency int
}

// WithResultsID sets the timestamped results id of the run.
func WithResultsID(id string) RunOption {
	return func(o *runOptions) { o.resultsID = id }
}

// WithLogger sets the sink that run and sample records are written to.
func WithLogger(l logger.Logger) RunOption {
	return func(o *runOptions) { o.base = l }
}

// WithExtraLoggers adds sinks that receive every run and sample record in
// addition to the base sink.
func WithExtraLoggers(ls ...logger.Logger) RunOption {
	return func(o *runOptions) { o.extra = append(o.extra, ls...) }
}

// WithFinder replaces the filesystem search.
func WithFinder(f Finder) RunOption {
	return func(o *runOptions) { o.finder = f }
}

// WithOutputIndex sets the stage directories to resolve.
func WithOutputIndex(idx config.OutputIndex) RunOption {
	return func(o *runOptions) { o.index = idx }
}

// WithConcurrency bounds how many stage directories are resolved in parallel.
// Values below 2 resolve them sequentially.
func WithConcurrency(n int) RunOption {
	return func(o *runOptions) { o.concurrency = n }
}

// Run is the index of one pipeline run's output directory.
type Run struct {
	*Metadata

	// ID identifies the run; it should match the sequencer run id
	ID string
	// ResultsID is the timestamped id of the analysis results, if known
	ResultsID string
	// Dir is the absolute run output directory
	Dir string

	index       config.OutputIndex
	finder      Finder
	log         logger.Logger
	extra       []logger.Logger
	base        logger.Logger
	concurrency int

	samples     []*Sample
	sampleIndex map[string]*Sample
}

// NewRun indexes the run output rooted at dir.
// Stage directories are resolved first, then run-level files, then samples are
// built from the raw fastq sample sheet. Missing roles are logged, not returned;
// a non-nil error means the filesystem search itself failed.
func NewRun(dir, id string, opts ...RunOption) (*Run, error) {
	o := runOptions{
		finder: DefaultFinder,
		index:  config.DefaultOutputIndex(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Run{
		Metadata:    NewMetadata(),
		ID:          id,
		ResultsID:   o.resultsID,
		index:       o.index,
		finder:      o.finder,
		base:        o.base,
		extra:       o.extra,
		concurrency: o.concurrency,
		sampleIndex: make(map[string]*Sample),
	}
	r.log = logger.Named(logger.Multi(append([]logger.Logger{o.base}, o.extra...)...), id)
	r.log.LogDebug(fmt.Sprintf("Initialized logging for analysis: %s", id))

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, &IndexError{Phase: PhaseRoot, Err: err}
	}
	r.Dir = absDir

	if err := r.resolveStageDirs(); err != nil {
		return nil, err
	}
	if err := r.resolveRunFiles(); err != nil {
		return nil, err
	}
	if err := r.loadSamples(); err != nil {
		return nil, err
	}

	r.log.LogInfo(fmt.Sprintf("Indexed %s: %d stage dirs, %d samples", r.Dir, r.resolvedStageCount(), len(r.samples)))
	return r, nil
}

// resolveStageDirs finds at most one directory directly under the root for
// every role in the output index.
func (r *Run) resolveStageDirs() error {
	roles := r.index.Roles()
	results := make([]*fileutil.FindResult, len(roles))

	var g errgroup.Group
	if r.concurrency > 1 {
		g.SetLimit(r.concurrency)
	} else {
		g.SetLimit(1)
	}

	for i, role := range roles {
		i, role := i, role
		pattern := r.index[role].SearchPattern(role)
		g.Go(func() error {
			res, err := r.finder.Find(r.Dir, fileutil.FindOptions{
				Include:    []string{pattern},
				Type:       fileutil.TypeDir,
				NumLimit:   1,
				LevelLimit: 0,
			})
			if err != nil {
				return &IndexError{Phase: PhaseStageDirs, Role: role, Err: err}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Store in role order so the map contents never depend on completion order
	for i, role := range roles {
		res := results[i]
		if err := r.SetDirs(role, res.Paths); err != nil {
			return &IndexError{Phase: PhaseStageDirs, Role: role, Err: err}
		}
		switch {
		case len(res.Paths) == 0:
			r.log.LogDebug(fmt.Sprintf("Stage dir not found for %s", role))
		case res.Truncated():
			r.log.LogWarn(fmt.Sprintf("%d dirs match %s; using %s", res.Total, role, res.Paths[0]))
		default:
			r.log.LogTrace(fmt.Sprintf("Stage dir %s: %s", role, res.Paths[0]))
		}
	}
	return nil
}

// resolveRunFiles locates each run-level file directly under the root.
func (r *Run) resolveRunFiles() error {
	for _, fr := range runFileRoles {
		opts := fileutil.FindOptions{
			Include:    []string{fr.include},
			Type:       fileutil.TypeFile,
			NumLimit:   1,
			LevelLimit: 0,
		}
		if fr.exclude != "" {
			opts.Exclude = []string{fr.exclude}
		}

		res, err := r.finder.Find(r.Dir, opts)
		if err != nil {
			return &IndexError{Phase: PhaseRunFiles, Role: fr.name, Err: err}
		}
		if err := r.SetFiles(fr.name, res.Paths); err != nil {
			return &IndexError{Phase: PhaseRunFiles, Role: fr.name, Err: err}
		}

		switch {
		case len(res.Paths) == 0 && fr.required:
			r.log.LogError(fmt.Sprintf("No %s (%s) found in %s", fr.description, fr.include, r.Dir))
		case len(res.Paths) == 0:
			r.log.LogDebug(fmt.Sprintf("No %s (%s) found in %s", fr.description, fr.include, r.Dir))
		case res.Truncated():
			r.log.LogWarn(fmt.Sprintf("%d files match %s; using %s", res.Total, fr.include, res.Paths[0]))
		}
	}
	return nil
}

// loadSamples builds one Sample per distinct id in the raw fastq sample sheet.
func (r *Run) loadSamples() error {
	r.log.LogDebug("Getting samples for the analysis")

	sheet, ok := FirstOrNone(r.Files(RoleSamplesFastqRaw))
	if !ok {
		return nil
	}

	ids, err := readSampleIDs(sheet)
	if err != nil {
		return &IndexError{Phase: PhaseSamples, Role: RoleSamplesFastqRaw, Err: err}
	}

	for _, id := range ids {
		if _, seen := r.sampleIndex[id]; seen {
			continue
		}
		s := newSample(id, r.ID, r.Metadata, r.finder, r.base, r.extra)
		r.samples = append(r.samples, s)
		r.sampleIndex[id] = s
	}
	return nil
}

// readSampleIDs returns the first field of every row of a delimited sample
// sheet. The first row is data, not a header. Rows with an empty first field are
// skipped.
func readSampleIDs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sample sheet: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var ids []string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read sample sheet %s: %w", path, err)
		}
		if len(row) == 0 || row[0] == "" {
			continue
		}
		ids = append(ids, row[0])
	}
	return ids, nil
}

// Samples returns the run's samples in first-seen order.
func (r *Run) Samples() []*Sample {
	out := make([]*Sample, len(r.samples))
	copy(out, r.samples)
	return out
}

// SampleIDs returns the ids of the run's samples in first-seen order.
func (r *Run) SampleIDs() []string {
	ids := make([]string, 0, len(r.samples))
	for _, s := range r.samples {
		ids = append(ids, s.ID)
	}
	return ids
}

// Sample looks up a sample by id.
func (r *Run) Sample(id string) (*Sample, bool) {
	s, ok := r.sampleIndex[id]
	return s, ok
}

// OutputIndex returns the stage index the run was built from.
func (r *Run) OutputIndex() config.OutputIndex {
	return r.index
}

// StageDir returns the resolved directory for a stage role.
func (r *Run) StageDir(role string) (string, bool) {
	return FirstOrNone(r.Dirs(role))
}

// File returns the resolved path for a run-level file role.
func (r *Run) File(role string) (string, bool) {
	return FirstOrNone(r.Files(role))
}

func (r *Run) resolvedStageCount() int {
	n := 0
	for _, role := range r.DirRoles() {
		if len(r.Dirs(role)) > 0 {
			n++
		}
	}
	return n
}

// String describes the run as "<id> (<results id>) located at <dir>".
func (r *Run) String() string {
	return fmt.Sprintf("%s (%s) located at %s", r.ID, r.ResultsID, r.Dir)
}
