package manifest

import "github.com/codyspate/tool-locker/internal/catalog"

// extractShorthand converts top-level string-valued keys that name a
// known tool into fully-built Tool records, e.g. `terraform = "1.9.0"`.
// A name already produced by the explicit [tools.*] form is skipped.
func extractShorthand(root map[string]any, existing map[string]bool) []Tool {
	var out []Tool
	for key, val := range root {
		if existing[key] {
			continue
		}
		version, ok := val.(string)
		if !ok {
			continue
		}
		def, ok := catalog.Lookup(key)
		if !ok {
			continue
		}
		built := def.Build(key, version)
		out = append(out, Tool{
			Name:    built.Name,
			Version: built.Version,
			Kind:    ToolKind(built.Kind),
			Source:  built.Source,
			Binary:  built.Binary,
		})
	}
	return out
}
