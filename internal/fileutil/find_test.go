package fileutil

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
)

func TestFind(t *testing.T) {
	// Create a temporary run directory:
	// tmpDir/
	//   panel.bed
	//   panel.pad10.bed
	//   run.samples.pairs.csv
	//   settings.txt
	//   BAM-BWA/
	//     S1.bam
	//     S1.bai
	//     S2.bam
	//     nested/
	//       S1.dd.bam
	//   VCF-GATK-HC/
	//     S1.vcf
	//   .hidden/
	//     S1.bam
	tmpDir := t.TempDir()

	testFiles := []string{
		"panel.bed",
		"panel.pad10.bed",
		"run.samples.pairs.csv",
		"settings.txt",
		"BAM-BWA/S1.bam",
		"BAM-BWA/S1.bai",
		"BAM-BWA/S2.bam",
		"BAM-BWA/nested/S1.dd.bam",
		"VCF-GATK-HC/S1.vcf",
		".hidden/S1.bam",
	}

	for _, f := range testFiles {
		path := filepath.Join(tmpDir, f)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte("test content"), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}

	tests := []struct {
		name      string
		dir       string
		opts      FindOptions
		wantRel   []string // paths relative to tmpDir
		wantTotal int
	}{
		{
			name:      "top-level files only",
			opts:      FindOptions{Include: []string{"*.bam"}, Type: TypeFile, LevelLimit: 0},
			wantRel:   []string{},
			wantTotal: 0,
		},
		{
			name:      "whole subtree includes hidden dirs",
			opts:      FindOptions{Include: []string{"*.bam"}, Type: TypeFile, LevelLimit: NoLevelLimit},
			wantRel:   []string{".hidden/S1.bam", "BAM-BWA/S1.bam", "BAM-BWA/S2.bam", "BAM-BWA/nested/S1.dd.bam"},
			wantTotal: 4,
		},
		{
			name:      "level limit one",
			opts:      FindOptions{Include: []string{"*.bam"}, Type: TypeFile, LevelLimit: 1},
			wantRel:   []string{".hidden/S1.bam", "BAM-BWA/S1.bam", "BAM-BWA/S2.bam"},
			wantTotal: 3,
		},
		{
			name:      "exclusion prefers unpadded bed",
			opts:      FindOptions{Include: []string{"*.bed"}, Exclude: []string{"*.pad10.bed"}, Type: TypeFile, NumLimit: 1},
			wantRel:   []string{"panel.bed"},
			wantTotal: 1,
		},
		{
			name:      "num limit truncates sorted matches",
			opts:      FindOptions{Include: []string{"*.bed"}, Type: TypeFile, NumLimit: 1},
			wantRel:   []string{"panel.bed"},
			wantTotal: 2,
		},
		{
			name:      "dir search at root level",
			opts:      FindOptions{Include: []string{"BAM-BWA"}, Type: TypeDir, NumLimit: 1},
			wantRel:   []string{"BAM-BWA"},
			wantTotal: 1,
		},
		{
			name:      "dir search does not match files",
			opts:      FindOptions{Include: []string{"settings.txt"}, Type: TypeDir},
			wantRel:   []string{},
			wantTotal: 0,
		},
		{
			name:      "dir search matches hidden",
			opts:      FindOptions{Include: []string{".*"}, Type: TypeDir, LevelLimit: 0},
			wantRel:   []string{".hidden"},
			wantTotal: 1,
		},
		{
			name:      "dir search at root level lists every dir",
			opts:      FindOptions{Include: []string{"*"}, Type: TypeDir, LevelLimit: 0},
			wantRel:   []string{".hidden", "BAM-BWA", "VCF-GATK-HC"},
			wantTotal: 3,
		},
		{
			name:      "match all requires every pattern",
			dir:       "BAM-BWA",
			opts:      FindOptions{Include: []string{"*.bam", "S1*"}, Type: TypeFile, LevelLimit: NoLevelLimit, MatchMode: MatchAll},
			wantRel:   []string{"BAM-BWA/S1.bam", "BAM-BWA/nested/S1.dd.bam"},
			wantTotal: 2,
		},
		{
			name:      "match any accepts one pattern",
			dir:       "BAM-BWA",
			opts:      FindOptions{Include: []string{"*.bai", "S2*"}, Type: TypeFile, LevelLimit: 0, MatchMode: MatchAny},
			wantRel:   []string{"BAM-BWA/S1.bai", "BAM-BWA/S2.bam"},
			wantTotal: 2,
		},
		{
			name:      "no include matches everything",
			dir:       "VCF-GATK-HC",
			opts:      FindOptions{Type: TypeFile},
			wantRel:   []string{"VCF-GATK-HC/S1.vcf"},
			wantTotal: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searchDir := filepath.Join(tmpDir, tt.dir)
			res, err := Find(searchDir, tt.opts)
			if err != nil {
				t.Fatalf("Find() error = %v", err)
			}

			got := make([]string, 0, len(res.Paths))
			for _, p := range res.Paths {
				if !filepath.IsAbs(p) {
					t.Errorf("path %s is not absolute", p)
				}
				rel, err := filepath.Rel(tmpDir, p)
				if err != nil {
					t.Fatalf("failed to relativize %s: %v", p, err)
				}
				got = append(got, filepath.ToSlash(rel))
			}

			want := append([]string{}, tt.wantRel...)
			sort.Strings(want)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Find() paths = %v, want %v", got, want)
			}
			if res.Total != tt.wantTotal {
				t.Errorf("Find() total = %d, want %d", res.Total, tt.wantTotal)
			}
		})
	}
}

func TestFind_RelativeDirYieldsAbsolutePaths(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "settings.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	chdir(t, tmpDir)

	res, err := Find(".", FindOptions{Include: []string{"*settings.txt"}, Type: TypeFile})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	paths := res.Paths
	if len(paths) != 1 {
		t.Fatalf("expected 1 path, got %v", paths)
	}
	if !filepath.IsAbs(paths[0]) {
		t.Errorf("expected absolute path, got %s", paths[0])
	}
}

func TestFind_MissingDirectory(t *testing.T) {
	_, err := Find(filepath.Join(t.TempDir(), "missing"), FindOptions{})
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if !strings.Contains(err.Error(), "failed to access directory") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFind_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	_, err := Find(file, FindOptions{})
	if err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("expected not a directory error, got %v", err)
	}
}

func TestFind_InvalidPattern(t *testing.T) {
	_, err := Find(t.TempDir(), FindOptions{Include: []string{"[unclosed"}})
	if err == nil || !strings.Contains(err.Error(), "invalid pattern") {
		t.Errorf("expected invalid pattern error, got %v", err)
	}

	_, err = Find(t.TempDir(), FindOptions{Exclude: []string{"[unclosed"}})
	if err == nil || !strings.Contains(err.Error(), "invalid pattern") {
		t.Errorf("expected invalid pattern error for exclusion, got %v", err)
	}
}

func TestFind_SymlinkToDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "real-stage")
	if err := os.MkdirAll(target, 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	root := filepath.Join(tmpDir, "run")
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.Symlink(target, filepath.Join(root, "BAM-BWA")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	res, err := Find(root, FindOptions{Include: []string{"BAM-BWA"}, Type: TypeDir})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	paths := res.Paths
	if len(paths) != 1 || filepath.Base(paths[0]) != "BAM-BWA" {
		t.Errorf("expected linked stage dir, got %v", paths)
	}
}

func TestFindResult_Truncated(t *testing.T) {
	r := &FindResult{Paths: []string{"a"}, Total: 2}
	if !r.Truncated() {
		t.Error("expected truncated result")
	}
	r = &FindResult{Paths: []string{"a"}, Total: 1}
	if r.Truncated() {
		t.Error("expected complete result")
	}
}

func TestEnumStrings(t *testing.T) {
	if TypeFile.String() != "file" || TypeDir.String() != "dir" {
		t.Errorf("unexpected EntryType strings: %s %s", TypeFile, TypeDir)
	}
	if MatchAny.String() != "any" || MatchAll.String() != "all" {
		t.Errorf("unexpected MatchMode strings: %s %s", MatchAny, MatchAll)
	}
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%q) error = %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("Chdir(%q) error = %v", old, err)
		}
	})
}
