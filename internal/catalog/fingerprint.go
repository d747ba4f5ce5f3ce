package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns a stable 64-bit hash of the catalog's canonical JSON
// encoding, formatted as 16 hex digits.
func Fingerprint(c *Catalog) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode catalog: %w", err)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data)), nil
}
