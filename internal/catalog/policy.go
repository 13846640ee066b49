package catalog

import "fmt"

// TagPolicy decides how MasterData tag mutations reach the store.
type TagPolicy string

const (
	// PolicyOptimistic applies the change locally, then syncs in the
	// background. Sync failures are logged and the local value stays.
	PolicyOptimistic TagPolicy = "optimistic"
	// PolicyConfirmed writes to the store first and applies locally only on
	// success, the same way job mutations behave.
	PolicyConfirmed TagPolicy = "confirmed"
)

// ParseTagPolicy converts a raw string to a TagPolicy. Empty means optimistic.
func ParseTagPolicy(s string) (TagPolicy, error) {
	switch p := TagPolicy(s); p {
	case "":
		return PolicyOptimistic, nil
	case PolicyOptimistic, PolicyConfirmed:
		return p, nil
	}
	return "", fmt.Errorf("unknown tag sync policy %q", s)
}
