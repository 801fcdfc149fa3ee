package registry

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadDescriptors reads a YAML document mapping page names to view
// descriptors, for use as a static view mapping.
//
//	home:
//	  $ui:
//	    template: Welcome
//	users:
//	  rows:
//	    - template: Users
//	    - $subview: true
func LoadDescriptors(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptors: %w", err)
	}
	return DecodeDescriptors(bytes.NewReader(data))
}

// DecodeDescriptors decodes descriptors from r.
func DecodeDescriptors(r io.Reader) (map[string]any, error) {
	raw := make(map[string]any)
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode descriptors: %w", err)
	}

	views := make(map[string]any, len(raw))
	for page, value := range raw {
		descriptor, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("descriptor %q: expected mapping, got %T", page, value)
		}
		views[page] = descriptor
	}
	return views, nil
}

// RegisterDescriptors registers every descriptor under prefix/page.
func (r *ViewRegistry) RegisterDescriptors(prefix string, views map[string]any) {
	for page, descriptor := range views {
		id := page
		if prefix != "" {
			id = prefix + "/" + page
		}
		r.Register(id, Module{Default: descriptor})
	}
}

// ReplaceDescriptors registers views under prefix and removes descriptors
// previously registered under prefix that views no longer names.
func (r *ViewRegistry) ReplaceDescriptors(prefix string, views map[string]any) {
	r.RegisterDescriptors(prefix, views)

	for _, id := range r.Names() {
		page := id
		if prefix != "" {
			if !strings.HasPrefix(id, prefix+"/") {
				continue
			}
			page = strings.TrimPrefix(id, prefix+"/")
		}
		if _, ok := views[page]; ok {
			continue
		}
		if info, ok := r.Info(id); ok && info.Loader == nil {
			r.Remove(id)
		}
	}
}
