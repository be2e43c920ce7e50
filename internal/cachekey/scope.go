package cachekey

import (
	"fmt"
	"regexp"
)

// ScopeList is the allow-list of operations whose results depend on which
// clinic is asking. It is a contract with the upstream service's routing:
// a tenant-scoped endpoint missing from this list will silently cache
// across clinics. Keep it in sync with the upstream API, and keep it here
// in one reviewable place rather than scattered through call sites.
type ScopeList struct {
	namePatterns []*regexp.Regexp
	pathPatterns []*regexp.Regexp
}

func NewScopeList(namePatterns []string, pathPatterns []string) (*ScopeList, error) {
	compile := func(raw []string) ([]*regexp.Regexp, error) {
		compiled := make([]*regexp.Regexp, len(raw))
		for i, pattern := range raw {
			rx, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("failed to compile scope pattern %q: %w", pattern, err)
			}
			compiled[i] = rx
		}
		return compiled, nil
	}

	namePatternRxs, err := compile(namePatterns)
	if err != nil {
		return nil, err
	}
	pathPatternRxs, err := compile(pathPatterns)
	if err != nil {
		return nil, err
	}

	return &ScopeList{
		namePatterns: namePatternRxs,
		pathPatterns: pathPatternRxs,
	}, nil
}

// IsTenantScoped checks the operation name first, then the endpoint path.
func (s *ScopeList) IsTenantScoped(descriptor Descriptor) bool {
	for _, rx := range s.namePatterns {
		if rx.MatchString(descriptor.Name) {
			return true
		}
	}
	for _, rx := range s.pathPatterns {
		if rx.MatchString(descriptor.Path) {
			return true
		}
	}
	return false
}
