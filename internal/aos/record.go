package aos

import (
	"fmt"
	"strings"
	"time"
)

// KeyMap renames object attributes from the bucket-listing service to the
// canonical catalog column names. Listing keys absent from this map pass
// through under their own name.
var KeyMap = map[string]string{
	"LastModified":      "last_modified",
	"Size":              "size",
	"StorageClass":      "storage_class",
	"ETag":              "e_tag",
	"ChecksumAlgorithm": "checksum_algorithm",
	"ChecksumType":      "checksum_type",
	"Key":               "key",
}

// TSVFields is the canonical catalog column order.
var TSVFields = []string{
	"last_modified",
	"size",
	"storage_class",
	"e_tag",
	"checksum_algorithm",
	"checksum_type",
	"key",
}

// ObjectRecord is one cataloged object. All values are flattened strings;
// columns outside the canonical seven land in Extra.
type ObjectRecord struct {
	LastModified      string
	Size              string
	StorageClass      string
	ETag              string
	ChecksumAlgorithm string
	ChecksumType      string
	Key               string
	Extra             map[string]string
}

// Field returns the value of a canonical field by column name.
// The second result is false for non-canonical names.
func (r *ObjectRecord) Field(name string) (string, bool) {
	switch name {
	case "last_modified":
		return r.LastModified, true
	case "size":
		return r.Size, true
	case "storage_class":
		return r.StorageClass, true
	case "e_tag":
		return r.ETag, true
	case "checksum_algorithm":
		return r.ChecksumAlgorithm, true
	case "checksum_type":
		return r.ChecksumType, true
	case "key":
		return r.Key, true
	}
	return "", false
}

// SetField assigns a canonical field by column name.
// The result is false for non-canonical names.
func (r *ObjectRecord) SetField(name, value string) bool {
	switch name {
	case "last_modified":
		r.LastModified = value
	case "size":
		r.Size = value
	case "storage_class":
		r.StorageClass = value
	case "e_tag":
		r.ETag = value
	case "checksum_algorithm":
		r.ChecksumAlgorithm = value
	case "checksum_type":
		r.ChecksumType = value
	case "key":
		r.Key = value
	default:
		return false
	}
	return true
}

// FlattenedMap returns all fields as one column→value map,
// canonical fields plus extras.
func (r *ObjectRecord) FlattenedMap() map[string]string {
	m := make(map[string]string, len(TSVFields)+len(r.Extra))
	for _, name := range TSVFields {
		v, _ := r.Field(name)
		m[name] = v
	}
	for k, v := range r.Extra {
		m[k] = v
	}
	return m
}

// Flatten canonicalizes a listing value into a single string:
// string slices join with ":", timestamps render as ISO-8601, strings
// lose surrounding double quotes, everything else stringifies.
func Flatten(value any) string {
	switch v := value.(type) {
	case []string:
		return strings.Join(v, ":")
	case time.Time:
		return v.Format(time.RFC3339)
	case string:
		if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
			return v[1 : len(v)-1]
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}
