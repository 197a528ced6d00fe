// Package report provides output formatters for nilguard candidate
// listings in JSON and human-readable text formats.
package report

import (
	"github.com/unbound-force/nilguard/internal/model"
)

// Entry is one (type, member, parameter) candidate.
type Entry struct {
	// Package is the full import path.
	Package string `json:"package"`

	// Type is the declaring type name, empty for package functions.
	Type string `json:"type,omitempty"`

	// Member is the function, method or constructor name.
	Member string `json:"member"`

	// Kind is "function", "method" or "constructor".
	Kind string `json:"kind"`

	// Param is the name of the parameter passed as nil.
	Param string `json:"param"`

	// Index is the position of Param in the parameter list.
	Index int `json:"index"`

	// ParamType is the parameter type, qualified by package name.
	ParamType string `json:"param_type"`

	// Location is the source position of the member (file:line:col).
	Location string `json:"location"`
}

// QualifiedName returns "Type.Member", or "Member" for package
// functions.
func (e Entry) QualifiedName() string {
	if e.Type == "" {
		return e.Member
	}
	return e.Type + "." + e.Member
}

// FromCandidates converts candidates to report entries, keeping their
// order.
func FromCandidates(cands []model.Candidate) []Entry {
	out := make([]Entry, 0, len(cands))
	for _, c := range cands {
		e := Entry{
			Package:   c.Type.PkgPath,
			Member:    c.Method.Name,
			Kind:      string(c.Method.Kind),
			Param:     c.Param.Name,
			Index:     c.Param.Index,
			ParamType: c.Param.Type.Name,
			Location:  c.Method.Location,
		}
		if c.Type.Kind != model.KindPackage {
			e.Type = c.Type.Name
		}
		out = append(out, e)
	}
	return out
}
