package catalog

import "strings"

// IsOwner reports whether currentUserID owns the resource with
// resourceOwnerID. Missing or blank ids never grant ownership.
func IsOwner(currentUserID, resourceOwnerID string) bool {
	current := strings.TrimSpace(currentUserID)
	owner := strings.TrimSpace(resourceOwnerID)
	if current == "" || owner == "" {
		return false
	}
	return current == owner
}
