package archive

import (
	"context"

	"wparchive/pkg/wordpress"
)

// Analysis maps a site's discovered routes against the reference table.
type Analysis struct {
	Total      int
	Categories map[string]wordpress.Category
	Counts     map[wordpress.Category]int
	Unknown    []string
	// Rendered is the classifier's table diff for unknown routes, empty
	// unless probing was requested.
	Rendered string
}

// Analyze resolves every discovered route through the reference table and,
// when probe is set, live-classifies the routes the table does not know so
// the rendered diff can be pasted back into it.
func (a *Archiver) Analyze(ctx context.Context, probe bool) (*Analysis, error) {
	root, _, err := a.fetchRoot(ctx)
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{
		Total:      len(root.Order),
		Categories: make(map[string]wordpress.Category, len(root.Order)),
		Counts:     make(map[wordpress.Category]int),
	}

	for _, route := range root.Order {
		category := a.known.Lookup(route)
		analysis.Categories[route] = category
		analysis.Counts[category]++
		if category == wordpress.CategoryUnknown {
			analysis.Unknown = append(analysis.Unknown, route)
		}
	}

	if probe && len(analysis.Unknown) > 0 {
		classifier := wordpress.NewClassifier(a.client, a.log)
		categorized := classifier.ClassifyAll(ctx, analysis.Unknown, root)
		analysis.Rendered = wordpress.RenderTable(categorized)
	}

	return analysis, nil
}
