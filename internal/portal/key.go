package portal

import (
	"fmt"
	"strings"
)

// worldKeySep joins the two halves of a world key. Instance names come from
// the portal configuration and never contain it.
const worldKeySep = "::"

// WorldKey builds the opaque token identifying a history entry for admin
// operations.
func WorldKey(instanceName, worldName string) string {
	return instanceName + worldKeySep + worldName
}

// ParseWorldKey splits a token produced by WorldKey.
func ParseWorldKey(key string) (instanceName, worldName string, err error) {
	i := strings.Index(key, worldKeySep)
	if i < 0 {
		return "", "", fmt.Errorf("invalid world key %q", key)
	}
	return key[:i], key[i+len(worldKeySep):], nil
}
