package cachekey

import (
	"strings"

	"github.com/jellydator/ttlcache/v3"
)

// Bounds the memo table for a long-lived process. Evicted entries simply
// re-derive; correctness never depends on a memo hit.
const maxMemoEntries = 4096

// Descriptor identifies what an operation fetches. Name is a stable
// operation identifier ("settings.get"); Path is the upstream endpoint
// path the operation hits. Callers supply both explicitly: key derivation
// never inspects the operation's implementation.
type Descriptor struct {
	Name string
	Path string
}

// Deriver turns a descriptor and its dependency values into a stable cache
// key. Derivation is pure and deterministic; repeated derivations of equal
// inputs are served from a bounded memo table.
//
// Operations matching the scope list get the caller's clinic ID appended
// to their dependency list, whether or not the caller supplied it: two
// clinics asking the "same" question must never share an entry.
type Deriver struct {
	scopes *ScopeList

	memo *ttlcache.Cache[string, string]
}

func NewDeriver(scopes *ScopeList) *Deriver {
	return &Deriver{
		scopes: scopes,
		memo:   ttlcache.New[string, string](ttlcache.WithCapacity[string, string](maxMemoEntries)),
	}
}

func (d *Deriver) Derive(descriptor Descriptor, clinicID string, deps []Dep) string {
	var memoKey strings.Builder
	memoKey.WriteString(descriptor.Name)
	memoKey.WriteByte(0x1f)
	memoKey.WriteString(descriptor.Path)
	memoKey.WriteByte(0x1f)
	memoKey.WriteString(payloadEscaper.Replace(clinicID))
	for _, dep := range deps {
		memoKey.WriteByte(0x1f)
		memoKey.WriteString(dep.encode())
	}

	if memoized := d.memo.Get(memoKey.String()); memoized != nil {
		return memoized.Value()
	}

	key := d.derive(descriptor, clinicID, deps)
	d.memo.Set(memoKey.String(), key, ttlcache.NoTTL)
	return key
}

func (d *Deriver) derive(descriptor Descriptor, clinicID string, deps []Dep) string {
	if d.scopes.IsTenantScoped(descriptor) {
		tenantDep := String(clinicID)
		if clinicID == "" {
			tenantDep = Absent()
		}
		deps = append(deps[:len(deps):len(deps)], Record(map[string]Dep{"clinicId": tenantDep}))
	}

	fragments := make([]string, len(deps))
	for i, dep := range deps {
		fragments[i] = dep.fragment()
	}

	var key strings.Builder
	key.WriteString(descriptor.Name)
	key.WriteByte('@')
	key.WriteString(descriptor.Path)
	if len(fragments) > 0 {
		key.WriteByte('?')
		key.WriteString(strings.Join(fragments, "&"))
	}
	return key.String()
}
