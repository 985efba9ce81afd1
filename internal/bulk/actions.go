// Package bulk merges a set of requested listing changes into marketplace
// API payloads and drives the writes and their follow-up calls.
package bulk

import (
	"encoding/json"
	"strings"

	"github.com/melitools/melisync/internal/mlapi"
	"github.com/melitools/melisync/pkg/utils"
	"github.com/pkg/errors"
)

// Sources for a directive's value.
const (
	SourceManual      = "manual"
	SourceRecalculate = "recalculate_new"
	SourceERPStock    = "from_tiny_qty"
)

// Directive is one requested change: where the value comes from and, for
// manual directives, the value itself.
type Directive struct {
	Source string          `json:"source"`
	Value  json.RawMessage `json:"value"`
}

func (d Directive) Float64() (float64, bool) {
	var v float64
	if err := utils.Json.Unmarshal(d.Value, &v); err != nil {
		return 0, false
	}
	return v, true
}

func (d Directive) Int() (int, bool) {
	f, ok := d.Float64()
	if !ok {
		return 0, false
	}
	return int(f), true
}

func (d Directive) Text() (string, bool) {
	var v string
	if err := utils.Json.Unmarshal(d.Value, &v); err != nil {
		return "", false
	}
	return v, true
}

func (d Directive) Bool() (bool, bool) {
	var v bool
	if err := utils.Json.Unmarshal(d.Value, &v); err == nil {
		return v, true
	}
	// accepted for backwards compatibility with string-encoded flags
	var s string
	if err := utils.Json.Unmarshal(d.Value, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		}
	}
	return false, false
}

func (d Directive) Pictures() ([]mlapi.Picture, bool) {
	var v []mlapi.Picture
	if err := utils.Json.Unmarshal(d.Value, &v); err != nil {
		return nil, false
	}
	return v, true
}

func (d Directive) Attributes() ([]mlapi.Attribute, bool) {
	var v []mlapi.Attribute
	if err := utils.Json.Unmarshal(d.Value, &v); err != nil {
		return nil, false
	}
	return v, true
}

// PackageDimensions is the payload of a package_dimensions_group
// directive.
type PackageDimensions struct {
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
	Length float64 `json:"length"`
	Weight float64 `json:"weight"`
}

func (d Directive) Dimensions() (PackageDimensions, bool) {
	var v PackageDimensions
	if err := utils.Json.Unmarshal(d.Value, &v); err != nil {
		return PackageDimensions{}, false
	}
	return v, true
}

// ActionSet is the parsed form of a bulk edit request for one listing.
type ActionSet struct {
	Directives map[string]Directive
	Unknown    []string
}

func (a *ActionSet) Get(key string) (Directive, bool) {
	d, ok := a.Directives[key]
	return d, ok
}

func (a *ActionSet) Has(key string) bool {
	_, ok := a.Directives[key]
	return ok
}

var knownActionKeys = map[string]bool{
	"price":                    true,
	"available_quantity":       true,
	"title":                    true,
	"status":                   true,
	"main_picture":             true,
	"pictures":                 true,
	"mfg_time":                 true,
	"attributes":               true,
	"description":              true,
	"sku":                      true,
	"compatibilities":          true,
	"position":                 true,
	"local_pickup":             true,
	"free_shipping":            true,
	"package_dimensions_group": true,
}

// ParseActionSet decodes a raw JSON action map. The map may arrive bare
// or wrapped in an actions_to_perform envelope. Keys are trimmed,
// position_compatibility is accepted as an alias for position, and keys
// with no handler are collected under Unknown.
func ParseActionSet(raw json.RawMessage) (*ActionSet, error) {
	var flat map[string]json.RawMessage
	if err := utils.Json.Unmarshal(raw, &flat); err != nil {
		return nil, errors.Wrap(err, "decode bulk actions")
	}
	if inner, ok := flat["actions_to_perform"]; ok {
		if err := utils.Json.Unmarshal(inner, &flat); err != nil {
			return nil, errors.Wrap(err, "decode actions_to_perform envelope")
		}
	}

	set := &ActionSet{Directives: make(map[string]Directive, len(flat))}
	for key, val := range flat {
		key = strings.TrimSpace(key)
		if key == "position_compatibility" {
			key = "position"
		}
		if !knownActionKeys[key] {
			set.Unknown = append(set.Unknown, key)
			continue
		}
		var d Directive
		if err := utils.Json.Unmarshal(val, &d); err != nil || d.Source == "" {
			// bare value without a source wrapper counts as manual
			d = Directive{Source: SourceManual, Value: val}
		}
		set.Directives[key] = d
	}
	if len(set.Unknown) > 0 {
		utils.Log.Warnf("bulk: ignoring unknown action keys %v", set.Unknown)
	}
	return set, nil
}
