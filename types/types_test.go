package types

import (
	"encoding/json"
	"testing"
)

func TestNodeIdSetBytesLeftPads(t *testing.T) {
	var n NodeId
	n.SetBytes([]byte{0x01, 0x02, 0x03})
	if n[KeyLength-1] != 0x03 || n[KeyLength-2] != 0x02 || n[KeyLength-3] != 0x01 {
		t.Fatalf("SetBytes failed: got %x", n)
	}
	for i := 0; i < KeyLength-3; i++ {
		if n[i] != 0 {
			t.Fatalf("SetBytes did not left-pad: byte %d is %x", i, n[i])
		}
	}
}

func TestNodeIdSetBytesTruncatesFromLeft(t *testing.T) {
	b := make([]byte, 40)
	for i := range b {
		b[i] = byte(i)
	}
	var n NodeId
	n.SetBytes(b)
	for i := 0; i < KeyLength; i++ {
		if n[i] != byte(i+8) {
			t.Fatalf("SetBytes longer input: byte %d got %x, want %x", i, n[i], byte(i+8))
		}
	}
}

func TestNodeIdIsZero(t *testing.T) {
	var n NodeId
	if !n.IsZero() {
		t.Fatal("zero NodeId should be zero")
	}
	n[0] = 1
	if n.IsZero() {
		t.Fatal("non-zero NodeId should not be zero")
	}
}

func TestVoteIdIsZero(t *testing.T) {
	var v VoteId
	if !v.IsZero() {
		t.Fatal("zero VoteId should be zero")
	}
}

func TestHashHexPrefixed(t *testing.T) {
	var h Hash
	h.SetBytes([]byte{0xff})
	if hx := h.Hex(); len(hx) < 2 || hx[0:2] != "0x" {
		t.Fatalf("Hex should start with 0x, got %s", hx)
	}
}

func TestNodeIdMarshalJSON(t *testing.T) {
	var n NodeId
	n.SetBytes([]byte{0xab, 0xcd})
	out, err := n.MarshalJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) < 2 || out[0] != '"' || out[len(out)-1] != '"' {
		t.Fatalf("MarshalJSON should produce a quoted string, got %s", out)
	}
}

func TestNodeIdJSONRoundTrip(t *testing.T) {
	var n NodeId
	n.SetBytes([]byte{0xde, 0xad, 0xbe, 0xef})
	data, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got NodeId
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != n {
		t.Fatalf("round-trip mismatch: got %x, want %x", got, n)
	}
}

func TestVoteIdJSONRoundTrip(t *testing.T) {
	var v VoteId
	v.SetBytes([]byte{0x01, 0x02, 0x03, 0x04, 0x05})
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got VoteId
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != v {
		t.Fatalf("round-trip mismatch: got %x, want %x", got, v)
	}
}

func TestHashJSONRoundTrip(t *testing.T) {
	var h Hash
	h.SetBytes([]byte{0xff, 0xee, 0xdd})
	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Hash
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != h {
		t.Fatalf("round-trip mismatch: got %x, want %x", got, h)
	}
}

func TestNodeIdUnmarshalJSONRejectsWrongLength(t *testing.T) {
	var n NodeId
	if err := json.Unmarshal([]byte(`"0xabcd"`), &n); err == nil {
		t.Fatal("expected error for short hex payload")
	}
}

func TestNodeIdUnmarshalJSONRejectsInvalidHex(t *testing.T) {
	var n NodeId
	if err := json.Unmarshal([]byte(`"not-hex"`), &n); err == nil {
		t.Fatal("expected error for invalid hex payload")
	}
}
