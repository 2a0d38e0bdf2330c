package acm

import (
	"encoding/binary"

	"github.com/grugnet/core/canonicaljson"
	"github.com/grugnet/core/crypto"
	"github.com/grugnet/core/types"
)

// SignBytes computes the canonical pre-image a sender signs:
//
//	sign_bytes = H( canonical_json(msgs) || sender || utf8(chain_id) || be_u32(sequence) )
//
// The canonical JSON encoding is pinned down in canonicaljson: alphabetical
// field order for objects, no insignificant whitespace, Go's minimal number
// formatting.
func SignBytes(msgs []types.Message, sender types.Address, chainID string, sequence uint32) (types.Hash, error) {
	body, err := canonicaljson.Marshal(msgs)
	if err != nil {
		return types.Hash{}, err
	}
	buf := make([]byte, 0, len(body)+types.AddressLength+len(chainID)+4)
	buf = append(buf, body...)
	buf = append(buf, sender.Bytes()...)
	buf = append(buf, []byte(chainID)...)
	var seqBuf [4]byte
	binary.BigEndian.PutUint32(seqBuf[:], sequence)
	buf = append(buf, seqBuf[:]...)
	return types.Hash256(buf), nil
}

// Verify checks sig against sign_bytes under pk, dispatching to the
// signature scheme named by pk.Kind.
func Verify(pk PublicKey, signBytes types.Hash, sig []byte) bool {
	switch pk.Kind {
	case Secp256k1:
		return crypto.VerifySecp256k1(pk.Key[:], sig, signBytes.Bytes())
	case Secp256r1:
		return crypto.VerifySecp256r1(pk.Key[:], sig, signBytes.Bytes())
	default:
		return false
	}
}
