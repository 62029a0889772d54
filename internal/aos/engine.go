package aos

// MissingField is substituted for document fields absent from a search hit
// so downstream formatting never has to handle missing data.
const MissingField = "MISSING"

// IndexFields is the fixed index schema: one stored text field per
// snapshot-level and canonical object attribute.
var IndexFields = []string{
	"scan_start",
	"bucket_name",
	"last_modified",
	"size",
	"storage_class",
	"e_tag",
	"checksum_algorithm",
	"checksum_type",
	"key",
}

// DocumentSource streams index documents (flat field→value maps) into yield.
type DocumentSource func(yield func(doc map[string]string) error) error

// SearchEngine is the external indexing collaborator: it rebuilds an index
// from a document stream and executes ranked queries against it.
type SearchEngine interface {
	// Rebuild fully replaces the index at indexPath with the documents from
	// docs and returns the number of documents indexed. The returned index
	// is immediately queryable and consistent.
	Rebuild(indexPath string, docs DocumentSource) (int, error)

	// Query parses query against the key field, executes it capped at
	// maxResults, and returns scored results in rank order. Re-invoke to
	// re-query; results are not live.
	Query(indexPath, query string, maxResults int) ([]QueryResult, error)
}

// SearchHit is one decoded search result document. Fields absent from the
// stored document hold MissingField.
type SearchHit struct {
	ScanStart         string
	BucketName        string
	LastModified      string
	Size              string
	StorageClass      string
	ETag              string
	ChecksumAlgorithm string
	ChecksumType      string
	Key               string
}

// NewSearchHit returns a SearchHit with every field set to MissingField.
func NewSearchHit() SearchHit {
	return SearchHit{
		ScanStart:         MissingField,
		BucketName:        MissingField,
		LastModified:      MissingField,
		Size:              MissingField,
		StorageClass:      MissingField,
		ETag:              MissingField,
		ChecksumAlgorithm: MissingField,
		ChecksumType:      MissingField,
		Key:               MissingField,
	}
}

// SetField assigns an index field by name. The result is false for names
// outside the schema.
func (h *SearchHit) SetField(name, value string) bool {
	switch name {
	case "scan_start":
		h.ScanStart = value
	case "bucket_name":
		h.BucketName = value
	case "last_modified":
		h.LastModified = value
	case "size":
		h.Size = value
	case "storage_class":
		h.StorageClass = value
	case "e_tag":
		h.ETag = value
	case "checksum_algorithm":
		h.ChecksumAlgorithm = value
	case "checksum_type":
		h.ChecksumType = value
	case "key":
		h.Key = value
	default:
		return false
	}
	return true
}

// URI returns the object's s3:// URI.
func (h SearchHit) URI() string {
	return "s3://" + h.BucketName + "/" + h.Key
}

// QueryResult pairs a relevance score with its decoded document.
type QueryResult struct {
	Score float64
	Hit   SearchHit
}
