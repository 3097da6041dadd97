package analysis

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/harrison/snsindex/internal/config"
)

// recordingLogger captures records for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	records []string
}

func (r *recordingLogger) add(level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, level+" "+msg)
}

func (r *recordingLogger) LogTrace(m string) { r.add("TRACE", m) }
func (r *recordingLogger) LogDebug(m string) { r.add("DEBUG", m) }
func (r *recordingLogger) LogInfo(m string)  { r.add("INFO", m) }
func (r *recordingLogger) LogWarn(m string)  { r.add("WARN", m) }
func (r *recordingLogger) LogError(m string) { r.add("ERROR", m) }

// contains reports whether any record has the level and contains substr.
func (r *recordingLogger) contains(level, substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if strings.HasPrefix(rec, level+" ") && strings.Contains(rec, substr) {
			return true
		}
	}
	return false
}

// writeTree creates files (with content) below root; keys ending in "/" are
// created as empty directories.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if strings.HasSuffix(name, "/") {
			if err := os.MkdirAll(path, 0755); err != nil {
				t.Fatalf("failed to create directory: %v", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}
}

// testIndex is a small stage index used across tests.
func testIndex() config.OutputIndex {
	return config.OutputIndex{
		"alignment": {Pattern: "BAM-BWA", FilePatterns: []string{"*.bam", "*.bai"}},
		"variants":  {Pattern: "VCF-GATK-HC", FilePatterns: []string{"*.vcf"}},
		"BAM-DD":    {FilePatterns: []string{"*.dd.bam"}},
	}
}

// standardRun lays out a typical run directory and returns its root.
func standardRun(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"run1.samples.pairs.csv":          "S1,S2\n",
		"run1.samples.fastq-raw.csv":      "S1,S1_R1.fastq.gz,S1_R2.fastq.gz\nS2,S2_R1.fastq.gz,S2_R2.fastq.gz\nS1,S1_L2_R1.fastq.gz,S1_L2_R2.fastq.gz\n",
		"run1.summary-combined.wes.csv":   "#SAMPLE,reads\n",
		"run1.settings.txt":               "GENOME=hg19\n",
		"panel.bed":                       "chr1\t1\t100\n",
		"panel.pad10.bed":                 "chr1\t1\t110\n",
		"BAM-BWA/S1.bam":                  "",
		"BAM-BWA/S1.bai":                  "",
		"BAM-BWA/S2.bam":                  "",
		"VCF-GATK-HC/S1.vcf":              "",
		"VCF-GATK-HC/sub/S1.filtered.vcf": "",
	})
	return root
}
