package preset

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Entry is a preset as written in a configuration file: either a size
// specification string or a structured directive.
//
//	presets:
//	  thumb: "100x100,C"
//	  banner:
//	    width: 1200
//	    height: 300
//	    cropbox: true
//	    fill: "#000000"
type Entry struct {
	Spec      string
	Directive *Directive
}

// UnmarshalYAML accepts a scalar specification or a mapping.
func (e *Entry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&e.Spec)
	}
	var d Directive
	if err := value.Decode(&d); err != nil {
		return err
	}
	e.Directive = &d
	return nil
}

// UnmarshalTOML accepts a string specification or an inline table.
func (e *Entry) UnmarshalTOML(v interface{}) error {
	switch val := v.(type) {
	case string:
		e.Spec = val
		return nil
	case map[string]interface{}:
		var d Directive
		for k, raw := range val {
			switch k {
			case "width":
				n, ok := raw.(int64)
				if !ok {
					return fmt.Errorf("width: expected integer, got %T", raw)
				}
				d.Width = int(n)
			case "height":
				n, ok := raw.(int64)
				if !ok {
					return fmt.Errorf("height: expected integer, got %T", raw)
				}
				d.Height = int(n)
			case "crop":
				d.Crop, _ = raw.(bool)
			case "cropbox":
				d.Cropbox, _ = raw.(bool)
			case "fill":
				d.Fill, _ = raw.(string)
			default:
				return fmt.Errorf("unknown preset field %q", k)
			}
		}
		e.Directive = &d
		return nil
	default:
		return fmt.Errorf("preset must be a string or table, got %T", v)
	}
}

// Resolve converts the entry into a validated directive.
func (e Entry) Resolve() (Directive, error) {
	if e.Directive != nil {
		d := *e.Directive
		if d.Fill == "" {
			d.Fill = DefaultFill
		}
		return d, d.Validate()
	}
	d, ok := ParseSpec(e.Spec)
	if !ok {
		return Directive{}, fmt.Errorf("invalid size specification %q", e.Spec)
	}
	return d, d.Validate()
}

// Table maps preset names to directives. It is built once at startup and
// shared read-only afterwards.
type Table map[string]Directive

// NewTable resolves every configured entry, failing on the first bad one.
func NewTable(entries map[string]Entry) (Table, error) {
	t := make(Table, len(entries))
	for name, e := range entries {
		d, err := e.Resolve()
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		t[name] = d
	}
	return t, nil
}

// Get returns the preset stored under exactly name.
func (t Table) Get(name string) (Directive, bool) {
	d, ok := t[name]
	return d, ok
}

// Has reports whether a preset named name exists.
func (t Table) Has(name string) bool {
	_, ok := t[name]
	return ok
}

// Names returns the preset names in sorted order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolver looks up named presets and falls back to spec parsing.
type Resolver struct {
	presets Table
}

// NewResolver returns a resolver over presets. A nil table is allowed.
func NewResolver(presets Table) *Resolver {
	return &Resolver{presets: presets}
}

// Presets exposes the resolver's table.
func (r *Resolver) Presets() Table {
	return r.presets
}

// Resolve returns the directive for a preset name or a size specification.
// The second result is false when neither matches; callers treat that as
// "not found".
func (r *Resolver) Resolve(nameOrSpec string) (Directive, bool) {
	if d, ok := r.presets.Get(nameOrSpec); ok {
		return d, true
	}
	return ParseSpec(nameOrSpec)
}
