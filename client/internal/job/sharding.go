package job

import (
	"hash/fnv"
	"strconv"
)

// ShardLabel hashes a bookmark URL to a stable metric label in [0, 31].
func ShardLabel(key string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return strconv.FormatUint(uint64(h.Sum32()%32), 10)
}
