package aos

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"
)

// FilterByFileEndings reports whether uri passes the file-type allow-list.
// A nil list means "no filtering" and admits everything; an empty list
// admits nothing. Otherwise uri passes when it ends with any listed suffix
// (exact trailing characters, case-sensitive).
func FilterByFileEndings(uri string, endings []string) bool {
	if endings == nil {
		return true
	}
	for _, ending := range endings {
		if strings.HasSuffix(uri, ending) {
			return true
		}
	}
	return false
}

// LatestOnly keeps only the highest-scoring result per key. Results arrive
// in rank order, so the first occurrence of each key wins and relative
// order is preserved.
func LatestOnly(results []QueryResult) []QueryResult {
	seen := make(map[string]bool, len(results))
	kept := results[:0:0]
	for _, r := range results {
		if seen[r.Hit.Key] {
			continue
		}
		seen[r.Hit.Key] = true
		kept = append(kept, r)
	}
	return kept
}

// WriteResults prints results in the simple search format: the s3:// URI
// alone when uriOnly is set, otherwise URI, size, last-modified, and
// storage class, tab-separated. The endings allow-list is applied here,
// strictly after the engine's result cap, so a cap combined with filtering
// can under-report.
//
// A broken output pipe (e.g. piped to head) terminates silently.
func WriteResults(w io.Writer, results []QueryResult, uriOnly bool, endings []string) error {
	for _, r := range results {
		uri := r.Hit.URI()
		if !FilterByFileEndings(uri, endings) {
			continue
		}
		var err error
		if uriOnly {
			_, err = fmt.Fprintln(w, uri)
		} else {
			_, err = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", uri, r.Hit.Size, r.Hit.LastModified, r.Hit.StorageClass)
		}
		if err != nil {
			if isBrokenPipe(err) {
				return nil
			}
			return fmt.Errorf("writing results: %w", err)
		}
	}
	return nil
}

// WriteVerboseResults prints every schema field of every result along with
// its relevance score.
func WriteVerboseResults(w io.Writer, results []QueryResult) error {
	for _, r := range results {
		h := r.Hit
		_, err := fmt.Fprintf(w, "%.4f\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Score, h.ScanStart, h.BucketName, h.LastModified, h.Size,
			h.StorageClass, h.ETag, h.ChecksumAlgorithm, h.ChecksumType, h.Key)
		if err != nil {
			if isBrokenPipe(err) {
				return nil
			}
			return fmt.Errorf("writing results: %w", err)
		}
	}
	return nil
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE)
}
