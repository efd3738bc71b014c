package services

import (
	"strconv"

	"github.com/minio/highwayhash"
)

// hashKey is the fixed HighwayHash key. Changing it invalidates every stored
// content hash, forcing re-ingestion of unchanged documents.
var hashKey = []byte("aloha-rag/content-hash/v1-000000")

// ContentHash returns a stable hex digest of a document body.
func ContentHash(content string) (string, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return "", err
	}
	if _, err := h.Write([]byte(content)); err != nil {
		return "", err
	}
	return strconv.FormatUint(h.Sum64(), 16), nil
}
