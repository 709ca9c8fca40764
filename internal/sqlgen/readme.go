package sqlgen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ReadmeReport counts the outcome of a README script emission.
type ReadmeReport struct {
	Processed int
	Skipped   int
}

// EmitReadmeSQL builds an idempotent upsert script for the server_readmes
// table from a directory of raw .md files. The filename stem is the server
// id; the project name is the stem after the owner prefix. Each row carries
// a sha256 content digest for change detection.
//
// A single unreadable file is skipped and counted, not fatal: the corpus is
// large and partially trusted.
func (e *Emitter) EmitReadmeSQL(readmesDir string) (string, *ReadmeReport, error) {
	report := &ReadmeReport{}

	entries, err := os.ReadDir(readmesDir)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read README directory %s: %w", readmesDir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".md") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	var b strings.Builder
	b.WriteString("-- README Import SQL\n")
	fmt.Fprintf(&b, "-- Generated on %s\n", e.now().Format(time.RFC3339))
	b.WriteString("-- This file contains README content data for import\n\n")

	if len(files) == 0 {
		b.WriteString("-- No README files found\n")
		return b.String(), report, nil
	}

	var rows []string
	for _, filename := range files {
		content, err := os.ReadFile(filepath.Join(readmesDir, filename))
		if err != nil {
			report.Skipped++
			continue
		}

		serverID := strings.TrimSuffix(filename, ".md")
		digest := sha256.Sum256(content)
		projectName := projectNameFromStem(serverID)

		rows = append(rows, fmt.Sprintf("(%s, %s, %s, %s, %s, %d)",
			sqlString(serverID),
			sqlString(filename),
			sqlString(projectName),
			sqlString(string(content)),
			sqlString(hex.EncodeToString(digest[:])),
			len(content)))
		report.Processed++
	}

	if len(rows) == 0 {
		b.WriteString("-- No valid README files to process\n")
		return b.String(), report, nil
	}

	b.WriteString("-- Server README data\n")
	b.WriteString("INSERT INTO server_readmes (server_id, filename, project_name, raw_content, content_hash, file_size) VALUES\n")
	b.WriteString(strings.Join(rows, ",\n"))
	b.WriteString("\nON CONFLICT (server_id) DO UPDATE SET\n")
	b.WriteString("  filename = EXCLUDED.filename,\n  project_name = EXCLUDED.project_name,\n")
	b.WriteString("  raw_content = EXCLUDED.raw_content,\n  content_hash = EXCLUDED.content_hash,\n")
	b.WriteString("  file_size = EXCLUDED.file_size,\n  updated_at = NOW();\n")

	return b.String(), report, nil
}

// projectNameFromStem drops the owner prefix of an owner_repo filename stem.
func projectNameFromStem(stem string) string {
	if _, after, ok := strings.Cut(stem, "_"); ok && after != "" {
		return after
	}
	return stem
}
