// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package entitystore

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/discordia-project/discordia/lib/codec"
	"github.com/discordia-project/discordia/lib/state"
)

// Snapshot file layout:
//
//	magic    [4]byte  "DSNP"
//	version  byte     snapshotVersion
//	digest   [32]byte BLAKE3 keyed hash of the uncompressed payload
//	payload  zstd(CBOR(SnapshotFile))
var snapshotMagic = [4]byte{'D', 'S', 'N', 'P'}

const (
	snapshotVersion    = 1
	snapshotHeaderSize = len(snapshotMagic) + 1 + 32
)

var snapshotKey = [32]byte{
	'd', 'i', 's', 'c', 'o', 'r', 'd', 'i', 'a', '.', 's', 'n', 'a', 'p', 's', 'h',
	'o', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// ErrCorruptSnapshot reports a snapshot whose header or digest does
// not check out.
var ErrCorruptSnapshot = errors.New("entitystore: corrupt snapshot")

// SnapshotFile is the payload of a snapshot file.
type SnapshotFile struct {
	Written  time.Time      `cbor:"written"`
	Snapshot state.Snapshot `cbor:"snapshot"`
}

// SnapshotInfo describes an encoded snapshot.
type SnapshotInfo struct {
	Written        time.Time
	Counts         state.Counts
	Digest         string
	CompressedSize int
	PayloadSize    int
}

// zstd encoders and decoders are safe for concurrent EncodeAll and
// DecodeAll calls.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("entitystore: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("entitystore: zstd decoder initialization failed: " + err.Error())
	}
}

func snapshotDigest(payload []byte) ([32]byte, error) {
	var digest [32]byte
	hasher, err := blake3.NewKeyed(snapshotKey[:])
	if err != nil {
		return digest, err
	}
	hasher.Write(payload)
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// MarshalSnapshot encodes snapshot in the snapshot file format.
func MarshalSnapshot(snapshot state.Snapshot, written time.Time) ([]byte, error) {
	payload, err := codec.Marshal(SnapshotFile{Written: written.UTC(), Snapshot: snapshot})
	if err != nil {
		return nil, fmt.Errorf("entitystore: encoding snapshot: %w", err)
	}
	digest, err := snapshotDigest(payload)
	if err != nil {
		return nil, fmt.Errorf("entitystore: hashing snapshot: %w", err)
	}

	var buffer bytes.Buffer
	buffer.Write(snapshotMagic[:])
	buffer.WriteByte(snapshotVersion)
	buffer.Write(digest[:])
	buffer.Write(zstdEncoder.EncodeAll(payload, nil))
	return buffer.Bytes(), nil
}

// UnmarshalSnapshot decodes and verifies a snapshot file.
func UnmarshalSnapshot(data []byte) (SnapshotFile, SnapshotInfo, error) {
	if len(data) < snapshotHeaderSize || !bytes.Equal(data[:len(snapshotMagic)], snapshotMagic[:]) {
		return SnapshotFile{}, SnapshotInfo{}, fmt.Errorf("%w: bad header", ErrCorruptSnapshot)
	}
	if version := data[len(snapshotMagic)]; version != snapshotVersion {
		return SnapshotFile{}, SnapshotInfo{}, fmt.Errorf("entitystore: unsupported snapshot version %d", version)
	}
	want := data[len(snapshotMagic)+1 : snapshotHeaderSize]
	compressed := data[snapshotHeaderSize:]

	payload, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return SnapshotFile{}, SnapshotInfo{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	digest, err := snapshotDigest(payload)
	if err != nil {
		return SnapshotFile{}, SnapshotInfo{}, fmt.Errorf("entitystore: hashing snapshot: %w", err)
	}
	if !bytes.Equal(digest[:], want) {
		return SnapshotFile{}, SnapshotInfo{}, fmt.Errorf("%w: digest mismatch", ErrCorruptSnapshot)
	}

	var file SnapshotFile
	if err := codec.Unmarshal(payload, &file); err != nil {
		return SnapshotFile{}, SnapshotInfo{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	info := SnapshotInfo{
		Written:        file.Written,
		Counts:         file.Snapshot.Counts(),
		Digest:         hex.EncodeToString(digest[:]),
		CompressedSize: len(compressed),
		PayloadSize:    len(payload),
	}
	return file, info, nil
}

// WriteSnapshotFile writes a snapshot atomically: a temporary file in
// the same directory is renamed over path.
func WriteSnapshotFile(path string, snapshot state.Snapshot, written time.Time) error {
	data, err := MarshalSnapshot(snapshot, written)
	if err != nil {
		return err
	}

	temporary, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("entitystore: creating temporary snapshot: %w", err)
	}
	temporaryPath := temporary.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(temporaryPath)
		}
	}()

	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		return fmt.Errorf("entitystore: writing snapshot: %w", err)
	}
	if err := temporary.Sync(); err != nil {
		temporary.Close()
		return fmt.Errorf("entitystore: syncing snapshot: %w", err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("entitystore: closing snapshot: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		return fmt.Errorf("entitystore: renaming snapshot: %w", err)
	}
	success = true
	return nil
}

// ReadSnapshotFile reads and verifies the snapshot at path.
func ReadSnapshotFile(path string) (SnapshotFile, SnapshotInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SnapshotFile{}, SnapshotInfo{}, fmt.Errorf("entitystore: %w", err)
	}
	file, info, err := UnmarshalSnapshot(data)
	if err != nil {
		return SnapshotFile{}, SnapshotInfo{}, fmt.Errorf("%s: %w", path, err)
	}
	return file, info, nil
}
