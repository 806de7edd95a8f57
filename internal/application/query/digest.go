package query

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// requestDigest returns the hex SHA-256 of the query's JSON encoding. Query
// structs marshal with deterministic field order, so equal queries always
// digest equally. Used as the result-cache key.
func requestDigest(query any) (string, error) {
	data, err := json.Marshal(query)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
