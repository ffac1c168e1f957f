// ABOUTME: Projection of the aggregated tool catalog into the model's function-calling shape.
// ABOUTME: Provider identity is stripped; the model sees only name, description, schema.

package registry

import "github.com/chatconnect/toolgate/internal/model"

// CatalogForModel flattens every usable connection's tools into
// provider-agnostic catalog entries for the model.
func (r *Registry) CatalogForModel() []model.CatalogEntry {
	tools := r.ListAllTools()
	out := make([]model.CatalogEntry, 0, len(tools))
	for _, t := range tools {
		out = append(out, model.CatalogEntry{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return out
}
