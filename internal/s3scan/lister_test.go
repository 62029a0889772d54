package s3scan

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestEntryFromObject(t *testing.T) {
	modified := time.Date(2025, 3, 31, 1, 37, 5, 0, time.UTC)
	obj := types.Object{
		Key:               aws.String("v1/illumina/wex/fastqs/SEDefn.json"),
		LastModified:      aws.Time(modified),
		Size:              aws.Int64(1407),
		StorageClass:      types.ObjectStorageClassDeepArchive,
		ETag:              aws.String(`"8762b27bbeee8c644b19ce7dac46c5c2"`),
		ChecksumAlgorithm: []types.ChecksumAlgorithm{types.ChecksumAlgorithmSha256},
		ChecksumType:      types.ChecksumTypeFullObject,
	}

	entry := entryFromObject(obj)

	if entry["Key"] != "v1/illumina/wex/fastqs/SEDefn.json" {
		t.Errorf("Key = %v", entry["Key"])
	}
	if got, ok := entry["LastModified"].(time.Time); !ok || !got.Equal(modified) {
		t.Errorf("LastModified = %v", entry["LastModified"])
	}
	if entry["Size"] != int64(1407) {
		t.Errorf("Size = %v", entry["Size"])
	}
	if entry["StorageClass"] != "DEEP_ARCHIVE" {
		t.Errorf("StorageClass = %v", entry["StorageClass"])
	}
	if entry["ETag"] != `"8762b27bbeee8c644b19ce7dac46c5c2"` {
		t.Errorf("ETag = %v (quote stripping belongs to the writer)", entry["ETag"])
	}
	if got, ok := entry["ChecksumAlgorithm"].([]string); !ok || len(got) != 1 || got[0] != "SHA256" {
		t.Errorf("ChecksumAlgorithm = %v", entry["ChecksumAlgorithm"])
	}
	if entry["ChecksumType"] != "FULL_OBJECT" {
		t.Errorf("ChecksumType = %v", entry["ChecksumType"])
	}
}

func TestEntryFromObject_zeroValues(t *testing.T) {
	entry := entryFromObject(types.Object{})

	if entry["Key"] != "" {
		t.Errorf("Key = %v", entry["Key"])
	}
	if entry["Size"] != int64(0) {
		t.Errorf("Size = %v", entry["Size"])
	}
	if got, ok := entry["ChecksumAlgorithm"].([]string); !ok || len(got) != 0 {
		t.Errorf("ChecksumAlgorithm = %v", entry["ChecksumAlgorithm"])
	}
}
