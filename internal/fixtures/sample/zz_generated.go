// Code generated by hand for discovery tests. DO NOT EDIT.

package sample

// Generated lives in a generated file and is never a candidate.
type Generated struct{}

// Apply has a nil-able parameter but is generated.
func (Generated) Apply(s *string) error {
	return nil
}

// GeneratedHelper is a generated package function.
func GeneratedHelper(p *string) int {
	if p == nil {
		return 0
	}
	return len(*p)
}
