// Package types defines the opaque fixed-size identifiers shared by the
// epoch schedule, leader schedule, and vote state machine: node identities,
// vote account identities, and ledger-state digests.
package types

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// KeyLength is the byte length of a NodeId or VoteId (an Ed25519-style
// public key, opaque to this module).
const KeyLength = 32

// HashLength is the byte length of a Hash (a ledger-state digest, opaque
// to this module).
const HashLength = 32

// NodeId identifies a validator node.
type NodeId [KeyLength]byte

// VoteId identifies the key currently authorized to sign vote submissions.
type VoteId [KeyLength]byte

// Hash is a digest of ledger state at a slot.
type Hash [HashLength]byte

// Slot is a monotonic integer identifying a point in the ledger.
type Slot uint64

// Epoch partitions slots into contiguous ranges.
type Epoch uint64

// Bytes returns the raw bytes of the node identity.
func (n NodeId) Bytes() []byte { return n[:] }

// Hex returns the "0x"-prefixed hex encoding of the node identity.
func (n NodeId) Hex() string { return hexutil.Encode(n[:]) }

// String implements fmt.Stringer.
func (n NodeId) String() string { return n.Hex() }

// IsZero reports whether the node identity is the all-zero default.
func (n NodeId) IsZero() bool { return n == NodeId{} }

// SetBytes sets the node identity from b, left-padding if b is shorter
// than KeyLength and truncating from the left if it is longer.
func (n *NodeId) SetBytes(b []byte) {
	if len(b) > KeyLength {
		b = b[len(b)-KeyLength:]
	}
	copy(n[KeyLength-len(b):], b)
}

// MarshalJSON implements json.Marshaler, rendering the key as a hex string.
func (n NodeId) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", n.Hex())), nil
}

// UnmarshalJSON implements json.Unmarshaler, accepting the hex string
// produced by MarshalJSON.
func (n *NodeId) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("types: NodeId: %w", err)
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return fmt.Errorf("types: NodeId: %w", err)
	}
	if len(b) != KeyLength {
		return fmt.Errorf("types: NodeId: want %d bytes, got %d", KeyLength, len(b))
	}
	copy(n[:], b)
	return nil
}

// Bytes returns the raw bytes of the vote identity.
func (v VoteId) Bytes() []byte { return v[:] }

// Hex returns the "0x"-prefixed hex encoding of the vote identity.
func (v VoteId) Hex() string { return hexutil.Encode(v[:]) }

// String implements fmt.Stringer.
func (v VoteId) String() string { return v.Hex() }

// IsZero reports whether the vote identity is the all-zero default. A
// zero VoteId is used as the VoteState sentinel for "not yet initialized".
func (v VoteId) IsZero() bool { return v == VoteId{} }

// SetBytes sets the vote identity from b, left-padding/truncating as
// NodeId.SetBytes does.
func (v *VoteId) SetBytes(b []byte) {
	if len(b) > KeyLength {
		b = b[len(b)-KeyLength:]
	}
	copy(v[KeyLength-len(b):], b)
}

// MarshalJSON implements json.Marshaler, rendering the key as a hex string.
func (v VoteId) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", v.Hex())), nil
}

// UnmarshalJSON implements json.Unmarshaler, accepting the hex string
// produced by MarshalJSON.
func (v *VoteId) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("types: VoteId: %w", err)
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return fmt.Errorf("types: VoteId: %w", err)
	}
	if len(b) != KeyLength {
		return fmt.Errorf("types: VoteId: want %d bytes, got %d", KeyLength, len(b))
	}
	copy(v[:], b)
	return nil
}

// Bytes returns the raw bytes of the hash.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the "0x"-prefixed hex encoding of the hash.
func (h Hash) Hex() string { return hexutil.Encode(h[:]) }

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// IsZero reports whether the hash is the all-zero default.
func (h Hash) IsZero() bool { return h == Hash{} }

// SetBytes sets the hash from b, left-padding/truncating as NodeId.SetBytes
// does.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// MarshalJSON implements json.Marshaler, rendering the hash as a hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", h.Hex())), nil
}

// UnmarshalJSON implements json.Unmarshaler, accepting the hex string
// produced by MarshalJSON.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("types: Hash: %w", err)
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return fmt.Errorf("types: Hash: %w", err)
	}
	if len(b) != HashLength {
		return fmt.Errorf("types: Hash: want %d bytes, got %d", HashLength, len(b))
	}
	copy(h[:], b)
	return nil
}
