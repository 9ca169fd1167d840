package poll

import (
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// Fingerprint returns the blake3 hash of v's JSON encoding. encoding/json
// sorts map keys, so equal values hash equally.
func Fingerprint(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode value: %w", err)
	}

	hasher := blake3.New()
	if _, err := hasher.Write(data); err != nil {
		return "", fmt.Errorf("hash value: %w", err)
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
