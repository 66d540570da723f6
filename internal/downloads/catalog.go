// Package downloads serves the site's downloadable files behind a per-client
// cooldown and logs every download.
package downloads

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"kalaklub-site/internal/shared/util"
)

// Entry is one downloadable file.
type Entry struct {
	Filename    string `yaml:"filename"`
	ContentType string `yaml:"content_type"`
	Description string `yaml:"description"`
}

// Catalog maps public keys to files. Only listed keys can be downloaded.
type Catalog map[string]Entry

type catalogFile struct {
	Files Catalog `yaml:"files"`
}

// DefaultCatalog is used when no catalog file is configured.
func DefaultCatalog() Catalog {
	return Catalog{
		"syllabus": {
			Filename:    "Kala-Klub-Figma-EDU-Bootcamp-Syllabus.pdf",
			ContentType: "application/pdf",
			Description: "Complete 12-Week Curriculum Guide",
		},
		"brochure": {
			Filename:    "Kala-Klub-Program-Brochure.pdf",
			ContentType: "application/pdf",
			Description: "Program Overview Brochure",
		},
	}
}

// LoadCatalog reads a YAML catalog. An empty path yields DefaultCatalog.
func LoadCatalog(path string) (Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(raw []byte) (Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Files) == 0 {
		return nil, errors.New("catalog has no files")
	}
	for key, entry := range file.Files {
		if err := util.CheckFileName(entry.Filename); err != nil {
			return nil, fmt.Errorf("catalog entry %q: %w %q", key, err, entry.Filename)
		}
		if entry.ContentType == "" {
			entry.ContentType = "application/octet-stream"
			file.Files[key] = entry
		}
	}
	return file.Files, nil
}

// Lookup returns the entry for key.
func (c Catalog) Lookup(key string) (Entry, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Entry{}, false
	}
	e, ok := c[key]
	return e, ok
}
