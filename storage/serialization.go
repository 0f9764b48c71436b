// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/capsearch/core"
)

// indexSchemaVersion must change whenever core's record field order does.
const indexSchemaVersion byte = 1

const (
	checksumSize   = 32
	blobHeaderSize = 1 + checksumSize
)

// MarshalIndexState serializes an IndexState into a versioned, checksummed blob.
func MarshalIndexState(state *core.IndexState) []byte {
	size := core.IndexStateMUS.Size(*state)
	buf := make([]byte, blobHeaderSize+size)
	body := buf[blobHeaderSize:]
	core.IndexStateMUS.Marshal(*state, body)

	buf[0] = indexSchemaVersion
	copy(buf[1:blobHeaderSize], core.Checksum(body))
	return buf
}

// UnmarshalIndexState verifies and deserializes a blob written by MarshalIndexState.
func UnmarshalIndexState(data []byte) (*core.IndexState, error) {
	if len(data) < blobHeaderSize {
		return nil, ErrTruncatedData
	}
	if data[0] != indexSchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, data[0])
	}
	body := data[blobHeaderSize:]
	if !bytes.Equal(data[1:blobHeaderSize], core.Checksum(body)) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrSerializationFailed)
	}

	state, n, err := core.IndexStateMUS.Unmarshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(body) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(body)-n)
	}
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &state, nil
}

// BlobChecksum returns the short content checksum stored in a blob header.
func BlobChecksum(data []byte) core.ID {
	if len(data) < 1+8 {
		return 0
	}
	return core.ID(binary.LittleEndian.Uint64(data[1:9]))
}

// NewIndexInfo summarizes state and its serialized blob.
func NewIndexInfo(state *core.IndexState, blob []byte) *core.IndexInfo {
	return &core.IndexInfo{
		Key:       state.Key,
		Documents: len(state.Documents),
		Terms:     state.Dictionary.Len(),
		Tokenizer: state.Tokenizer,
		Checksum:  BlobChecksum(blob),
		BuiltAt:   state.BuiltAt,
	}
}

// MarshalIndexInfo serializes a manifest record.
func MarshalIndexInfo(info *core.IndexInfo) []byte {
	size := ord.String.Size(info.Key) +
		varint.Int.Size(info.Documents) +
		varint.Int.Size(info.Terms) +
		ord.String.Size(info.Tokenizer) +
		varint.Uint64.Size(uint64(info.Checksum)) +
		varint.Int64.Size(info.BuiltAt.UnixMicro())
	buf := make([]byte, size)
	n := ord.String.Marshal(info.Key, buf)
	n += varint.Int.Marshal(info.Documents, buf[n:])
	n += varint.Int.Marshal(info.Terms, buf[n:])
	n += ord.String.Marshal(info.Tokenizer, buf[n:])
	n += varint.Uint64.Marshal(uint64(info.Checksum), buf[n:])
	varint.Int64.Marshal(info.BuiltAt.UnixMicro(), buf[n:])
	return buf
}

// UnmarshalIndexInfo deserializes a manifest record.
func UnmarshalIndexInfo(data []byte) (*core.IndexInfo, error) {
	var (
		info core.IndexInfo
		n    int
		n1   int
		err  error
	)
	if info.Key, n1, err = ord.String.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += n1
	if info.Documents, n1, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += n1
	if info.Terms, n1, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += n1
	if info.Tokenizer, n1, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += n1
	var checksum uint64
	if checksum, n1, err = varint.Uint64.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += n1
	info.Checksum = core.ID(checksum)
	var micros int64
	if micros, _, err = varint.Int64.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	info.BuiltAt = time.UnixMicro(micros).UTC()
	return &info, nil
}
