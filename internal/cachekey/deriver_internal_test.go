package cachekey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveMemoIsBounded(t *testing.T) {
	t.Parallel()

	scopes, err := NewScopeList(nil, nil)
	require.NoError(t, err)
	deriver := NewDeriver(scopes)

	descriptor := Descriptor{Name: "patients.get", Path: "/v1/clinics/{clinicId}/patients/{patientId}"}

	first := deriver.Derive(descriptor, "", []Dep{Int(0)})
	for i := range 3 * maxMemoEntries {
		deriver.Derive(descriptor, "", []Dep{Int(int64(i))})
	}

	require.LessOrEqual(t, deriver.memo.Len(), maxMemoEntries)

	// Evicted inputs re-derive to the same key
	require.Equal(t, first, deriver.Derive(descriptor, "", []Dep{Int(0)}))
}
