// Package crypto implements the two signature schemes the account
// protocol and the sandbox's crypto host import both need: secp256k1 and
// secp256r1 verification over the
// system hash.
package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"math/big"

	"github.com/btcsuite/btcd/btcec"
)

// VerifySecp256k1 checks a DER-encoded signature against a 33-byte
// compressed secp256k1 public key, using its curve
// implementation (github.com/btcsuite/btcd/btcec).
func VerifySecp256k1(pubKey, sigDER, hash []byte) bool {
	pk, err := btcec.ParsePubKey(pubKey, btcec.S256())
	if err != nil {
		return false
	}
	sig, err := btcec.ParseSignature(sigDER, btcec.S256())
	if err != nil {
		return false
	}
	return sig.Verify(hash, pk)
}

// VerifySecp256r1 checks a 64-byte raw (r||s) signature against a 33-byte
// compressed secp256r1 public key ("PublicKey"). secp256r1 is
// NIST P-256, which ships as a first-class curve in the standard library
// (crypto/elliptic) -- no third-party P-256 implementation exists anywhere
// in the retrieved example pack, so this one verifier rides on stdlib.
func VerifySecp256r1(pubKey, sig, hash []byte) bool {
	if len(sig) != 64 {
		return false
	}
	x, y := decompressP256(pubKey)
	if x == nil {
		return false
	}
	pk := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	return ecdsa.Verify(pk, hash, r, s)
}

// decompressP256 recovers the (x,y) affine coordinates of a 33-byte SEC1
// compressed point (0x02/0x03 prefix || 32-byte x). P-256's prime is 3 mod
// 4, so the candidate y is x^((p+1)/4) mod p; the prefix byte then picks
// the root with matching parity.
func decompressP256(compressed []byte) (x, y *big.Int) {
	if len(compressed) != 33 || (compressed[0] != 2 && compressed[0] != 3) {
		return nil, nil
	}
	curve := elliptic.P256().Params()
	x = new(big.Int).SetBytes(compressed[1:])
	if x.Cmp(curve.P) >= 0 {
		return nil, nil
	}

	// y^2 = x^3 - 3x + b (mod p)
	ySq := new(big.Int).Mul(x, x)
	ySq.Mul(ySq, x)
	threeX := new(big.Int).Lsh(x, 1)
	threeX.Add(threeX, x)
	ySq.Sub(ySq, threeX)
	ySq.Add(ySq, curve.B)
	ySq.Mod(ySq, curve.P)

	exp := new(big.Int).Add(curve.P, big.NewInt(1))
	exp.Rsh(exp, 2)
	y = new(big.Int).Exp(ySq, exp, curve.P)

	check := new(big.Int).Mul(y, y)
	check.Mod(check, curve.P)
	if check.Cmp(ySq) != 0 {
		return nil, nil
	}

	if y.Bit(0) != uint(compressed[0]&1) {
		y.Sub(curve.P, y)
	}
	if !curve.IsOnCurve(x, y) {
		return nil, nil
	}
	return x, y
}
