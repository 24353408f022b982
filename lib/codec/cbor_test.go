// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

type sampleRecord struct {
	ID        string    `cbor:"id"`
	Note      string    `cbor:"note,omitempty"`
	Count     int       `cbor:"count"`
	CreatedAt time.Time `cbor:"created_at"`
}

type sampleJSONRecord struct {
	Version int    `json:"version"`
	Name    string `json:"name"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	t.Parallel()

	original := sampleRecord{
		ID:        "backup-1",
		Note:      "before truncation",
		Count:     42,
		CreatedAt: time.Date(2026, 3, 14, 15, 9, 26, 535897932, time.UTC),
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.ID != original.ID || decoded.Note != original.Note || decoded.Count != original.Count {
		t.Errorf("roundtrip = %+v, want %+v", decoded, original)
	}
	if !decoded.CreatedAt.Equal(original.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v (nanoseconds must survive)", decoded.CreatedAt, original.CreatedAt)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	t.Parallel()

	first, err := Marshal(map[string]int{"zeta": 1, "alpha": 2, "mid": 3})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(map[string]int{"mid": 3, "alpha": 2, "zeta": 1})
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("Marshal produced different bytes for the same map: %x vs %x", first, again)
		}
	}
}

func TestJSONTagFallback(t *testing.T) {
	t.Parallel()

	data, err := Marshal(sampleJSONRecord{Version: 2, Name: "transcript"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var generic map[string]any
	if err := Unmarshal(data, &generic); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if generic["name"] != "transcript" {
		t.Errorf("generic[name] = %v, want transcript", generic["name"])
	}
	if _, ok := generic["version"]; !ok {
		t.Errorf("generic map missing json-tagged key version: %v", generic)
	}
}

func TestDiagnose(t *testing.T) {
	t.Parallel()

	data, err := Marshal(sampleJSONRecord{Version: 1, Name: "x"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(notation, `"name"`) || !strings.Contains(notation, `"x"`) {
		t.Errorf("Diagnose() = %s, want it to mention the name field", notation)
	}
}
