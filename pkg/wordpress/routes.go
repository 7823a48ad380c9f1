package wordpress

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RootDocument is a parsed WordPress REST API discovery document.
type RootDocument struct {
	// Routes maps route path to its descriptor.
	Routes map[string]RouteDescriptor
	// Order lists route paths in discovery-document order, which drives the
	// iteration order of a dump session.
	Order []string
}

// RouteDescriptor describes a single discovered route.
type RouteDescriptor struct {
	Namespace string     `json:"namespace"`
	Endpoints []Endpoint `json:"endpoints"`
	Links     RouteLinks `json:"_links"`
}

// RouteLinks carries the raw _links entry; the self link comes in several
// shapes, so it is kept raw until resolved.
type RouteLinks struct {
	Self json.RawMessage `json:"self"`
}

// Endpoint is one method+args definition within a route.
type Endpoint struct {
	Methods []string `json:"methods"`
	Args    ArgSet   `json:"args"`
}

// ArgSet is the declared argument names of an endpoint. Most installs emit an
// object; some plugins emit an array, which carries no usable names and
// decodes to an empty set.
type ArgSet map[string]json.RawMessage

func (a *ArgSet) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		*a = nil
		return nil
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*a = m
	return nil
}

// Has reports whether the endpoint declares an argument with the given name.
func (a ArgSet) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// SelfURL resolves the route's canonical fetchable URL, or false when the
// descriptor carries no usable self link.
func (d *RouteDescriptor) SelfURL() (string, bool) {
	return resolveSelfLink(d.Links.Self)
}

// resolveSelfLink covers the three observed _links.self shapes: an object
// with href, a bare string, and a non-empty list of objects with href.
// Anything else, including an empty list, means the link is absent.
func resolveSelfLink(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", false
	}

	switch trimmed[0] {
	case '"':
		var href string
		if err := json.Unmarshal(trimmed, &href); err != nil || href == "" {
			return "", false
		}
		return href, true
	case '{':
		var obj struct {
			Href string `json:"href"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil || obj.Href == "" {
			return "", false
		}
		return obj.Href, true
	case '[':
		var list []struct {
			Href string `json:"href"`
		}
		if err := json.Unmarshal(trimmed, &list); err != nil || len(list) == 0 || list[0].Href == "" {
			return "", false
		}
		return list[0].Href, true
	}

	return "", false
}

// HasPattern reports whether the route path embeds a regex capture group,
// which marks a per-item endpoint that is skipped without probing.
func HasPattern(route string) bool {
	return strings.Contains(route, "?P<")
}

// ParseRoot parses a discovery document body, preserving route order.
// A body that is not JSON or lacks the routes key is a malformed root.
func ParseRoot(body []byte) (*RootDocument, error) {
	var doc struct {
		Routes map[string]RouteDescriptor `json:"routes"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("root document is not valid JSON: %w", err)
	}
	if doc.Routes == nil {
		return nil, fmt.Errorf("root document has no routes key")
	}

	order, err := orderedRouteNames(body)
	if err != nil {
		return nil, err
	}

	return &RootDocument{Routes: doc.Routes, Order: order}, nil
}

// orderedRouteNames walks the top-level routes object with a token decoder,
// since unmarshalling into a map loses document order.
func orderedRouteNames(body []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("reading root document: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("root document is not an object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading root document: %w", err)
		}
		key, _ := keyTok.(string)

		if key != "routes" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("reading root document: %w", err)
			}
			continue
		}

		openTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading routes object: %w", err)
		}
		if delim, ok := openTok.(json.Delim); !ok || delim != '{' {
			return nil, fmt.Errorf("routes value is not an object")
		}

		var names []string
		for dec.More() {
			nameTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("reading routes object: %w", err)
			}
			name, _ := nameTok.(string)
			names = append(names, name)

			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("reading route %s: %w", name, err)
			}
		}
		return names, nil
	}

	return nil, fmt.Errorf("root document has no routes key")
}
