package wordpress

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Category classifies a route by access and response shape.
type Category string

const (
	// CategoryProtected routes require authentication, skip.
	CategoryProtected Category = "protected"
	// CategoryPublicList routes paginate arrays of records.
	CategoryPublicList Category = "public-list"
	// CategoryPublicDict routes return a single JSON object.
	CategoryPublicDict Category = "public-dict"
	// CategoryUseless routes are per-item or otherwise not worth dumping.
	CategoryUseless Category = "useless"
	// CategoryUnknown routes are absent from the reference table.
	CategoryUnknown Category = "unknown"
)

// lookupOrder is the precedence when a route appears in several lists.
var lookupOrder = []Category{
	CategoryProtected,
	CategoryPublicList,
	CategoryPublicDict,
	CategoryUseless,
}

//go:embed data/known_routes.yml
var defaultKnownRoutes []byte

// KnownRoutes is the hand-curated route→category reference table, consumed
// read-only. Updating it is a human action guided by the classifier's
// rendered diff.
type KnownRoutes struct {
	Protected  []string `yaml:"protected"`
	PublicList []string `yaml:"public-list"`
	PublicDict []string `yaml:"public-dict"`
	Useless    []string `yaml:"useless"`

	sets map[Category]map[string]struct{}
}

// DefaultKnownRoutes loads the table shipped with the binary.
func DefaultKnownRoutes() (*KnownRoutes, error) {
	return parseKnownRoutes(defaultKnownRoutes)
}

// LoadKnownRoutes loads a table override from a YAML file.
func LoadKnownRoutes(path string) (*KnownRoutes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read known routes file: %w", err)
	}
	return parseKnownRoutes(data)
}

func parseKnownRoutes(data []byte) (*KnownRoutes, error) {
	var table KnownRoutes
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse known routes: %w", err)
	}
	table.index()
	return &table, nil
}

func (k *KnownRoutes) index() {
	k.sets = map[Category]map[string]struct{}{
		CategoryProtected:  toSet(k.Protected),
		CategoryPublicList: toSet(k.PublicList),
		CategoryPublicDict: toSet(k.PublicDict),
		CategoryUseless:    toSet(k.Useless),
	}
}

func toSet(routes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		set[r] = struct{}{}
	}
	return set
}

// Lookup resolves a route against the table with precedence
// protected > public-list > public-dict > useless. Routes in no list are
// Unknown.
func (k *KnownRoutes) Lookup(route string) Category {
	for _, cat := range lookupOrder {
		if _, ok := k.sets[cat][route]; ok {
			return cat
		}
	}
	return CategoryUnknown
}
