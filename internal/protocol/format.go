package protocol

import (
	"bytes"
	"fmt"

	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

// Format 快照帧格式，由 /ws 的 format 参数选择
type Format string

const (
	// FormatJSON 文本帧，消息信封
	FormatJSON Format = "json"
	// FormatProto protowire 二进制帧
	FormatProto Format = "proto"
	// FormatMsgpack msgpack 二进制帧，字段名与 JSON 相同
	FormatMsgpack Format = "msgpack"
)

// ParseFormat 解析帧格式，空字符串为 JSON
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case "", FormatJSON:
		return FormatJSON, true
	case FormatProto, FormatMsgpack:
		return Format(s), true
	}
	return "", false
}

// Binary 是否使用二进制帧
func (f Format) Binary() bool {
	return f == FormatProto || f == FormatMsgpack
}

// EncodeSnapshotAs 按格式编码快照
func EncodeSnapshotAs(f Format, s *models.Snapshot) ([]byte, error) {
	switch f {
	case FormatProto:
		return EncodeSnapshot(s), nil
	case FormatMsgpack:
		return EncodeSnapshotMsgpack(s)
	default:
		return EncodeSnapshotJSON(s)
	}
}

// EncodeSnapshotMsgpack msgpack 格式的快照
func EncodeSnapshotMsgpack(s *models.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("编码 msgpack 快照失败: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshotMsgpack 解析 msgpack 快照
func DecodeSnapshotMsgpack(b []byte) (*models.Snapshot, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")

	var s models.Snapshot
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return &s, nil
}
