// Package skill reads skill folders: SKILL.md metadata and content fingerprints.
package skill

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

// DescriptorFile is the metadata file every skill folder must contain.
const DescriptorFile = "SKILL.md"

// Descriptor is the frontmatter of a SKILL.md file.
type Descriptor struct {
	Name        string
	Description string
	Metadata    map[string]any
}

// ParseDescriptor reads and parses the SKILL.md file in dir. Any failure,
// including missing required fields, is returned as an error.
func ParseDescriptor(dir string) (*Descriptor, error) {
	content, err := os.ReadFile(filepath.Join(dir, DescriptorFile))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse markdown")
	}

	metaData, err := meta.TryGet(pctx)
	if err != nil {
		return nil, errors.Wrap(err, "invalid frontmatter")
	}
	if len(metaData) == 0 {
		return nil, errors.New("missing frontmatter")
	}

	name, _ := metaData["name"].(string)
	description, _ := metaData["description"].(string)

	if name == "" {
		return nil, errors.New("skill name is required in frontmatter")
	}
	if description == "" {
		return nil, errors.New("skill description is required in frontmatter")
	}

	return &Descriptor{
		Name:        name,
		Description: description,
		Metadata:    metaData,
	}, nil
}
