package analysis

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/snsindex/internal/config"
	"github.com/harrison/snsindex/internal/fileutil"
)

func TestSample_ResolveOutputFiles_MatchAll(t *testing.T) {
	root := standardRun(t)
	run, err := NewRun(root, "run", WithOutputIndex(testIndex()))
	require.NoError(t, err)

	s1, ok := run.Sample("S1")
	require.True(t, ok)

	files, err := s1.ResolveOutputFiles("alignment", "*.bam")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "BAM-BWA", "S1.bam")}, files)

	// Results are cached on the sample under stage:pattern
	assert.Equal(t, files, s1.Files(OutputRole("alignment", "*.bam")))

	// The run's own container is untouched
	assert.Empty(t, run.Files(OutputRole("alignment", "*.bam")))
}

func TestSample_ResolveOutputFiles_SearchesSubtree(t *testing.T) {
	root := standardRun(t)
	run, err := NewRun(root, "run", WithOutputIndex(testIndex()))
	require.NoError(t, err)

	s1, _ := run.Sample("S1")
	files, err := s1.ResolveOutputFiles("variants", "*.vcf")
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "VCF-GATK-HC", "S1.vcf"),
		filepath.Join(root, "VCF-GATK-HC", "sub", "S1.filtered.vcf"),
	}, files)
}

func TestSample_ResolveOutputFiles_SearchesHiddenDirs(t *testing.T) {
	root := standardRun(t)
	writeTree(t, root, map[string]string{"BAM-BWA/.lane2/S1.bam": ""})
	run, err := NewRun(root, "run", WithOutputIndex(testIndex()))
	require.NoError(t, err)

	s1, _ := run.Sample("S1")
	files, err := s1.ResolveOutputFiles("alignment", "*.bam")
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "BAM-BWA", ".lane2", "S1.bam"),
		filepath.Join(root, "BAM-BWA", "S1.bam"),
	}, files)
}

func TestSample_ResolveOutputFiles_MissingStage(t *testing.T) {
	rec := &recordingLogger{}
	run, err := NewRun(standardRun(t), "run", WithOutputIndex(testIndex()), WithLogger(rec))
	require.NoError(t, err)

	s1, _ := run.Sample("S1")

	files, err := s1.ResolveOutputFiles("BAM-DD", "*.bam")
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)

	files, err = s1.ResolveOutputFiles("not-configured", "*.bam")
	require.NoError(t, err)
	assert.Empty(t, files)

	assert.True(t, rec.contains("ERROR", "[S1] search_dir not found for BAM-DD"))
}

func TestSample_ResolveOutputFiles_Accumulates(t *testing.T) {
	root := standardRun(t)
	run, err := NewRun(root, "run", WithOutputIndex(testIndex()))
	require.NoError(t, err)

	s1, _ := run.Sample("S1")
	_, err = s1.ResolveOutputFiles("alignment", "*.bam")
	require.NoError(t, err)
	_, err = s1.ResolveOutputFiles("alignment", "*.bam")
	require.NoError(t, err)

	bam := filepath.Join(root, "BAM-BWA", "S1.bam")
	assert.Equal(t, []string{bam, bam}, s1.Files(OutputRole("alignment", "*.bam")))
}

func TestSample_ResolveOutputFiles_FinderError(t *testing.T) {
	boom := errors.New("io error")
	dirs := NewMetadata()
	require.NoError(t, dirs.SetDir("alignment", "/data/BAM-BWA"))

	finder := FinderFunc(func(dir string, opts fileutil.FindOptions) (*fileutil.FindResult, error) {
		assert.Equal(t, "/data/BAM-BWA", dir)
		assert.Equal(t, []string{"*.bam", "S1*"}, opts.Include)
		assert.Equal(t, fileutil.MatchAll, opts.MatchMode)
		assert.Equal(t, fileutil.NoLevelLimit, opts.LevelLimit)
		assert.Equal(t, 0, opts.NumLimit)
		return nil, boom
	})

	s := newSample("S1", "run", dirs, finder, nil, nil)
	_, err := s.ResolveOutputFiles("alignment", "*.bam")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var ierr *IndexError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, PhaseSampleFiles, ierr.Phase)
}

func TestSample_ResolveStageOutputs(t *testing.T) {
	root := standardRun(t)
	idx := testIndex()
	run, err := NewRun(root, "run", WithOutputIndex(idx))
	require.NoError(t, err)

	s1, _ := run.Sample("S1")
	out, err := s1.ResolveStageOutputs(idx)
	require.NoError(t, err)

	// BAM-DD was never resolved so it is skipped
	assert.NotContains(t, out, "BAM-DD")
	assert.Equal(t, []string{
		filepath.Join(root, "BAM-BWA", "S1.bam"),
		filepath.Join(root, "BAM-BWA", "S1.bai"),
	}, out["alignment"])
	assert.Len(t, out["variants"], 2)
}

func TestSample_ResolveStageOutputs_Dedupes(t *testing.T) {
	root := standardRun(t)
	idx := config.OutputIndex{"alignment": {Pattern: "BAM-BWA", FilePatterns: []string{"*.bam", "S1.*"}}}
	run, err := NewRun(root, "run", WithOutputIndex(idx))
	require.NoError(t, err)

	s1, _ := run.Sample("S1")
	out, err := s1.ResolveStageOutputs(idx)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "BAM-BWA", "S1.bam"),
		filepath.Join(root, "BAM-BWA", "S1.bai"),
	}, out["alignment"])
}

func TestSample_GlobMetacharactersInID(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"BAM-BWA/S[1].bam": "",
		"BAM-BWA/S1.bam":   "",
	})
	dirs := NewMetadata()
	require.NoError(t, dirs.SetDir("alignment", filepath.Join(root, "BAM-BWA")))

	s := newSample("S[1]", "run", dirs, DefaultFinder, nil, nil)
	assert.Equal(t, "S[[]1]*", s.SearchPattern())

	files, err := s.ResolveOutputFiles("alignment", "*.bam")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "BAM-BWA", "S[1].bam")}, files)
}

func TestSample_Identity(t *testing.T) {
	s := newSample("Sample-42", "run", NewMetadata(), DefaultFinder, nil, nil)

	assert.Equal(t, "Sample-42", s.String())
	assert.Equal(t, len("Sample-42"), s.Len())
	assert.Equal(t, "Sample-42*", s.SearchPattern())
	assert.Empty(t, s.FileRoles(), "construction must not touch the filesystem or cache")
}
