// Package fileutil provides the pattern-matching filesystem search used to index
// pipeline output directories.
//
// Find walks a directory and returns the absolute paths of the files or
// directories whose base name matches a set of shell glob patterns.
//
// # Options
//
// FindOptions controls a search:
//   - Include: glob patterns a candidate name must match (see MatchMode)
//   - Exclude: glob patterns that reject a candidate when any of them matches
//   - Type: TypeFile or TypeDir
//   - NumLimit: cap on the number of returned paths (0 = unlimited)
//   - LevelLimit: how far below the search dir to look (0 = direct children only,
//     NoLevelLimit = whole subtree)
//   - MatchMode: MatchAny (one include pattern suffices) or MatchAll (every
//     include pattern must match)
//
// # Usage
//
// The single stage directory named "BAM-BWA" directly under a run root:
//
//	res, err := fileutil.Find(runDir, fileutil.FindOptions{
//	    Include:    []string{"BAM-BWA"},
//	    Type:       fileutil.TypeDir,
//	    NumLimit:   1,
//	    LevelLimit: 0,
//	})
//
// The unpadded target BED file:
//
//	res, err := fileutil.Find(runDir, fileutil.FindOptions{
//	    Include:    []string{"*.bed"},
//	    Exclude:    []string{"*.pad10.bed"},
//	    Type:       fileutil.TypeFile,
//	    NumLimit:   1,
//	    LevelLimit: 0,
//	})
//
// Every BAM for sample S1 anywhere below a stage directory:
//
//	res, err := fileutil.Find(stageDir, fileutil.FindOptions{
//	    Include:    []string{"*.bam", "S1*"},
//	    Type:       fileutil.TypeFile,
//	    LevelLimit: fileutil.NoLevelLimit,
//	    MatchMode:  fileutil.MatchAll,
//	})
//
// # Behavior
//
// Results are sorted before NumLimit is applied, so "the first match" is stable
// across runs and platforms. FindResult.Total reports how many candidates matched
// before truncation, which lets callers notice ambiguous lookups.
//
// A search that finds nothing is not an error: Paths is empty. Errors are reserved
// for a missing or unreadable search directory, invalid glob patterns, and I/O
// failures during the walk.
//
// Hidden entries are searched like any other, so a dot directory below a stage
// directory is part of its subtree. Symbolic links are classified by their
// target but never followed during recursion.
package fileutil
