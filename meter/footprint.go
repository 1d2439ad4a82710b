package meter

import "encoding/json"

// RecordOverhead is the fixed number of bytes charged per stored record
// on top of its key and value. It accounts for index and trie bookkeeping
// that every persisted entry carries.
const RecordOverhead uint64 = 40

// RecordBytes returns the metered size of one key/value record. The value
// is measured in its JSON encoding so that every store backend reports the
// same usage for the same logical state.
func RecordBytes(key string, value any) uint64 {
	n := uint64(len(key)) + RecordOverhead
	if value == nil {
		return n
	}
	data, err := json.Marshal(value)
	if err != nil {
		return n
	}
	return n + uint64(len(data))
}
