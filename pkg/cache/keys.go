package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/transitnet/pkg/geo"
)

// keyVersion changes whenever the cached result format or the link
// computation changes.
const keyVersion = "v1"

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return fmt.Sprintf("%s:%s", prefix, Hash(data))
}

// Hash computes a SHA-256 hash of the input data as 64 hex characters.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// LinksKey addresses the stop-to-stop links of a point set.
func LinksKey(points []geo.Point, cutoffKM, walkFactor float64) string {
	return hashKey("links", keyVersion, points, cutoffKM, walkFactor)
}

// AttachKey addresses the demand attachments of a demand set against a stop set.
func AttachKey(demands, stops []geo.Point, initialKM, maxKM, walkFactor float64) string {
	return hashKey("attach", keyVersion, demands, stops, initialKM, maxKM, walkFactor)
}
