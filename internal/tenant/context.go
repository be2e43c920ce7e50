package tenant

import "context"

type clinicIDContextKey struct{}

// AddToContext stores the clinic ID of the current caller in the context.
// Tenant-scoped cache keys are derived from this value.
func AddToContext(ctx context.Context, clinicID string) context.Context {
	return context.WithValue(ctx, clinicIDContextKey{}, clinicID)
}

// FromContext returns the clinic ID of the current caller, or "" if none is set.
func FromContext(ctx context.Context) string {
	clinicID, ok := ctx.Value(clinicIDContextKey{}).(string)
	if !ok {
		return ""
	}
	return clinicID
}
