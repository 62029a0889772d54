package aos

import (
	"testing"
	"time"
)

func TestFlatten(t *testing.T) {
	ts := time.Date(2025, 3, 31, 1, 37, 5, 0, time.UTC)

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string passes through", "DEEP_ARCHIVE", "DEEP_ARCHIVE"},
		{"quoted string loses outer quotes", `"a65f5b56909bf63398213ae450a879fb-604"`, "a65f5b56909bf63398213ae450a879fb-604"},
		{"inner quotes survive", `say "hi"`, `say "hi"`},
		{"single quote char is kept", `"`, `"`},
		{"empty string", "", ""},
		{"list joins with colon", []string{"SHA256", "CRC64NVME"}, "SHA256:CRC64NVME"},
		{"single-element list", []string{"SHA256"}, "SHA256"},
		{"empty list", []string{}, ""},
		{"timestamp renders ISO-8601", ts, "2025-03-31T01:37:05Z"},
		{"integer stringifies", int64(6325709904), "6325709904"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Flatten(tt.value); got != tt.want {
				t.Errorf("Flatten(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestObjectRecord_Fields(t *testing.T) {
	rec := ObjectRecord{}

	for _, name := range TSVFields {
		if !rec.SetField(name, "v-"+name) {
			t.Errorf("SetField(%q) = false, want true", name)
		}
		got, ok := rec.Field(name)
		if !ok || got != "v-"+name {
			t.Errorf("Field(%q) = %q, %v", name, got, ok)
		}
	}

	if rec.SetField("owner", "x") {
		t.Error("SetField accepted a non-canonical name")
	}
	if _, ok := rec.Field("owner"); ok {
		t.Error("Field returned ok for a non-canonical name")
	}
}

func TestObjectRecord_FlattenedMap(t *testing.T) {
	rec := ObjectRecord{
		LastModified:      "2025-03-31T01:39:09Z",
		Size:              "2271",
		StorageClass:      "DEEP_ARCHIVE",
		ETag:              "8762b27bbeee8c644b19ce7dac46c5c2",
		ChecksumAlgorithm: "SHA256",
		ChecksumType:      "FULL_OBJECT",
		Key:               "v1/illumina/wex/fastqs/event.json",
		Extra:             map[string]string{"owner": "hgsc"},
	}

	m := rec.FlattenedMap()
	if len(m) != len(TSVFields)+1 {
		t.Fatalf("len(FlattenedMap()) = %d, want %d", len(m), len(TSVFields)+1)
	}
	if m["key"] != rec.Key {
		t.Errorf("key = %q, want %q", m["key"], rec.Key)
	}
	if m["size"] != "2271" {
		t.Errorf("size = %q, want %q", m["size"], "2271")
	}
	if m["owner"] != "hgsc" {
		t.Errorf("owner = %q, want %q", m["owner"], "hgsc")
	}
}
