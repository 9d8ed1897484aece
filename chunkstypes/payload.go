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

package chunkstypes

import (
	"encoding/binary"
	"fmt"
)

// PackPayload serializes transactions and outgoing receipts into the single
// byte stream the Reed-Solomon codec encodes (spec.md §4.3: "transactions ∥
// outgoing-receipts"). The format is a length-prefixed transaction blob
// followed by a count-prefixed list of (dest_shard, data) receipts.
func PackPayload(transactions []byte, receipts []OutgoingReceipt) []byte {
	buf := make([]byte, 0, 4+len(transactions)+4)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(transactions)))
	buf = append(buf, transactions...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(receipts)))
	for _, r := range receipts {
		buf = binary.BigEndian.AppendUint64(buf, uint64(r.DestShard))
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(r.Data)))
		buf = append(buf, r.Data...)
	}
	return buf
}

// UnpackPayload reverses PackPayload. It errs on truncated input rather
// than panicking, since payload bytes arrive from a just-completed Reed-
// Solomon decode of untrusted network data.
func UnpackPayload(data []byte) ([]byte, []OutgoingReceipt, error) {
	r := &byteReader{data: data}
	txLen, err := r.uint32()
	if err != nil {
		return nil, nil, err
	}
	transactions, err := r.bytes(int(txLen))
	if err != nil {
		return nil, nil, err
	}
	receiptCount, err := r.uint32()
	if err != nil {
		return nil, nil, err
	}
	receipts := make([]OutgoingReceipt, 0, receiptCount)
	for i := uint32(0); i < receiptCount; i++ {
		shard, err := r.uint64()
		if err != nil {
			return nil, nil, err
		}
		dataLen, err := r.uint32()
		if err != nil {
			return nil, nil, err
		}
		rdata, err := r.bytes(int(dataLen))
		if err != nil {
			return nil, nil, err
		}
		receipts = append(receipts, OutgoingReceipt{DestShard: ShardID(shard), Data: rdata})
	}
	return transactions, receipts, nil
}

// EncodeReceiptsLeaf serializes the receipts destined for one shard into
// the deterministic leaf bytes the receipts Merkle tree is built over.
func EncodeReceiptsLeaf(receipts []OutgoingReceipt) []byte {
	buf := make([]byte, 0, 4)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(receipts)))
	for _, r := range receipts {
		buf = binary.BigEndian.AppendUint64(buf, uint64(r.DestShard))
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(r.Data)))
		buf = append(buf, r.Data...)
	}
	return buf
}

type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) uint32() (uint32, error) {
	if len(r.data)-r.pos < 4 {
		return 0, fmt.Errorf("chunkstypes: truncated payload reading uint32")
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *byteReader) uint64() (uint64, error) {
	if len(r.data)-r.pos < 8 {
		return 0, fmt.Errorf("chunkstypes: truncated payload reading uint64")
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *byteReader) bytes(n int) ([]byte, error) {
	if len(r.data)-r.pos < n {
		return nil, fmt.Errorf("chunkstypes: truncated payload reading %d bytes", n)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}
