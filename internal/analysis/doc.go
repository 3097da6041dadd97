// Package analysis indexes the output directory of one sns sequencing pipeline run.
//
// A Run resolves every configured stage directory and a fixed set of run-level
// files when it is constructed, then builds one Sample per distinct id listed in
// the run's raw fastq sample sheet. Samples resolve their own output files lazily,
// scoped to a stage directory the Run already found and filtered by the sample's
// id.
//
// Lookups that find nothing are not errors: the corresponding role reads as an
// empty slice and the miss is logged. Only failures of the underlying filesystem
// search (missing root, permission denied, I/O errors) abort construction.
//
// Where a lookup wants a single entry but several candidates match, the first
// entry in sorted order wins and a warning names the number of candidates.
package analysis
