package model

import (
	"fmt"
	"slices"
)

// ChangeField is a symbolic tag naming a snapshot field that differs from the
// previous revision.
type ChangeField string

const (
	ChangePage      ChangeField = "page"
	ChangeName      ChangeField = "name"
	ChangeBlob      ChangeField = "blob"
	ChangeLicensing ChangeField = "licensing"
)

// ChangeOrder is the fixed order change tags are reported in.
var ChangeOrder = []ChangeField{ChangePage, ChangeName, ChangeBlob, ChangeLicensing}

// AllChanges is the change set of a Create revision: everything changed.
func AllChanges() []ChangeField {
	return slices.Clone(ChangeOrder)
}

// HiddenField is a symbolic tag naming a revision field redacted from public view.
type HiddenField string

const (
	HiddenName      HiddenField = "name"
	HiddenBlob      HiddenField = "blob"
	HiddenMime      HiddenField = "mime"
	HiddenLicensing HiddenField = "licensing"
	HiddenComments  HiddenField = "comments"
	HiddenUser      HiddenField = "user"
)

// HiddenOrder is the fixed order hidden tags are stored in.
var HiddenOrder = []HiddenField{
	HiddenName,
	HiddenBlob,
	HiddenMime,
	HiddenLicensing,
	HiddenComments,
	HiddenUser,
}

// NormalizeHidden validates a requested hidden set and returns it deduplicated
// and in HiddenOrder. An unknown tag is an error.
func NormalizeHidden(fields []string) ([]HiddenField, error) {
	requested := make(map[HiddenField]bool, len(fields))
	for _, f := range fields {
		h := HiddenField(f)
		if !slices.Contains(HiddenOrder, h) {
			return nil, fmt.Errorf("unknown hidden field %q", f)
		}
		requested[h] = true
	}

	out := make([]HiddenField, 0, len(requested))
	for _, h := range HiddenOrder {
		if requested[h] {
			out = append(out, h)
		}
	}
	return out, nil
}

// ParseChanges converts stored change tags back to ChangeFields.
func ParseChanges(tags []string) ([]ChangeField, error) {
	out := make([]ChangeField, 0, len(tags))
	for _, t := range tags {
		c := ChangeField(t)
		if !slices.Contains(ChangeOrder, c) {
			return nil, fmt.Errorf("unknown change field %q", t)
		}
		out = append(out, c)
	}
	return out, nil
}
