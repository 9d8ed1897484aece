// Copyright 2026 The shardcore Authors
// This file is part of the shardcore chunks library.
//
// The shardcore chunks library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The shardcore chunks library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the shardcore chunks library. If not, see <http://www.gnu.org/licenses/>.

package collaborators

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/shardcore/chunks/chunkstypes"
)

// GenerateKey returns a new secp256k1 keypair, used by tests and the CLI
// demo to stand up validator identities.
func GenerateKey() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey()
}

// AccountIDFromPubKey derives an account identifier from a validator's
// public key, the same "hash of the pubkey" pattern the teacher's crypto
// package uses for Ethereum addresses.
func AccountIDFromPubKey(pub *btcec.PublicKey) chunkstypes.AccountID {
	return chunkstypes.HashBytes(pub.SerializeCompressed())
}

// Sign produces a deterministic ECDSA signature over msg's Keccak-256
// digest.
func Sign(priv *btcec.PrivateKey, msg []byte) []byte {
	digest := chunkstypes.HashBytes(msg)
	sig := ecdsa.Sign(priv, digest[:])
	return sig.Serialize()
}

// VerifySignature checks sig against msg's Keccak-256 digest under pub.
func VerifySignature(pub *btcec.PublicKey, msg, sig []byte) bool {
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	digest := chunkstypes.HashBytes(msg)
	return parsed.Verify(digest[:], pub)
}
