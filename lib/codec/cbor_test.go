// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
)

// sampleRecord mirrors the shape of an image entry record.
type sampleRecord struct {
	Path string `cbor:"p"`
	Type uint8  `cbor:"t"`
	Size int64  `cbor:"s,omitempty"`
	Data []byte `cbor:"d,omitempty"`
}

func TestMarshalDeterministic(t *testing.T) {
	record := sampleRecord{Path: "/d/f", Type: 1, Size: 3, Data: []byte("abc")}

	first, err := Marshal(record)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	second, err := Marshal(record)
	if err != nil {
		t.Fatalf("second Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding violated: %x != %x", first, second)
	}

	// Map keys come out sorted regardless of insertion order.
	left, _ := Marshal(map[string]int{"b": 2, "a": 1})
	right, _ := Marshal(map[string]int{"a": 1, "b": 2})
	if !bytes.Equal(left, right) {
		t.Errorf("map encoding depends on order: %x != %x", left, right)
	}
}

func TestEncoderDecoderSequence(t *testing.T) {
	records := []sampleRecord{
		{Path: "/", Type: 2},
		{Path: "/a", Type: 1, Size: 4, Data: []byte{0, 1, 2, 3}},
		{Path: "/b", Type: 1},
	}

	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i, want := range records {
		var got sampleRecord
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode record %d: %v", i, err)
		}
		if got.Path != want.Path || got.Type != want.Type || got.Size != want.Size || !bytes.Equal(got.Data, want.Data) {
			t.Errorf("record %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestOmitemptyRespected(t *testing.T) {
	withData := sampleRecord{Path: "/a", Type: 1, Size: 1, Data: []byte{1}}
	withoutData := sampleRecord{Path: "/a", Type: 1}

	dataWith, err := Marshal(withData)
	if err != nil {
		t.Fatal(err)
	}
	dataWithout, err := Marshal(withoutData)
	if err != nil {
		t.Fatal(err)
	}
	if len(dataWithout) >= len(dataWith) {
		t.Errorf("omitempty not effective: without=%d bytes, with=%d bytes",
			len(dataWithout), len(dataWith))
	}
}

func TestUnmarshalRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"invalid", []byte{0xFF, 0xFE, 0xFD}},
		// {"p": "/a", "p": "/b"}
		{"duplicate key", []byte{0xA2, 0x61, 'p', 0x62, '/', 'a', 0x61, 'p', 0x62, '/', 'b'}},
		// indefinite-length map {_ "p": "/a"}
		{"indefinite length", []byte{0xBF, 0x61, 'p', 0x62, '/', 'a', 0xFF}},
		// {"x": [[[[[[[[[[]]]]]]]]]]}, nested past the limit
		{"too deep", append([]byte{0xA1, 0x61, 'x', 0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0x81}, 0x80)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var record sampleRecord
			if err := Unmarshal(test.data, &record); err == nil {
				t.Errorf("Unmarshal accepted %x as %+v", test.data, record)
			}
		})
	}
}

func TestUnknownFieldsIgnored(t *testing.T) {
	data, err := Marshal(map[string]any{"p": "/a", "t": 1, "future": true})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var record sampleRecord
	if err := Unmarshal(data, &record); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if record.Path != "/a" || record.Type != 1 {
		t.Errorf("decoded %+v", record)
	}
}

func TestDiagnoseFirst(t *testing.T) {
	item1, err := Marshal(sampleRecord{Path: "/hello", Type: 1})
	if err != nil {
		t.Fatalf("Marshal item 1: %v", err)
	}
	item2, err := Marshal(int64(42))
	if err != nil {
		t.Fatalf("Marshal item 2: %v", err)
	}
	sequence := append(item1, item2...)

	notation, remaining, err := DiagnoseFirst(sequence)
	if err != nil {
		t.Fatalf("DiagnoseFirst: %v", err)
	}
	if !strings.Contains(notation, `"/hello"`) {
		t.Errorf("first item notation %q does not contain \"/hello\"", notation)
	}

	notation, remaining, err = DiagnoseFirst(remaining)
	if err != nil {
		t.Fatalf("DiagnoseFirst second: %v", err)
	}
	if !strings.Contains(notation, "42") {
		t.Errorf("second item notation %q does not contain \"42\"", notation)
	}
	if len(remaining) != 0 {
		t.Errorf("expected no remaining bytes, got %d", len(remaining))
	}

	if _, err := Diagnose(item1); err != nil {
		t.Errorf("Diagnose: %v", err)
	}
}

func BenchmarkMarshal(b *testing.B) {
	record := sampleRecord{Path: "/d/f", Type: 1, Size: 4096, Data: make([]byte, 4096)}
	b.ReportAllocs()
	for b.Loop() {
		Marshal(record)
	}
}
