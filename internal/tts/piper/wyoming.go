package piper

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// protocolVersion is sent in every event header.
const protocolVersion = "1.5.2"

// maxSectionLength guards against corrupt headers announcing huge sections.
const maxSectionLength = 16 << 20

// Wyoming event format:
//
//	{"type": ..., "version": ..., "data_length": N, "payload_length": M}\n
//	<N bytes of JSON data>
//	<M bytes of payload>
//
// Older servers put the data object inline in the header line instead.
type wyomingEvent struct {
	Type string
	Data map[string]any
}

type wyomingHeader struct {
	Type          string         `json:"type"`
	Version       string         `json:"version,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
	DataLength    int            `json:"data_length,omitempty"`
	PayloadLength int            `json:"payload_length,omitempty"`
}

// writeEvent sends a Wyoming event over the connection.
func writeEvent(w io.Writer, evt wyomingEvent, payload []byte) error {
	var data []byte
	if len(evt.Data) > 0 {
		var err error
		if data, err = json.Marshal(evt.Data); err != nil {
			return fmt.Errorf("marshalling event data: %w", err)
		}
	}

	header, err := json.Marshal(wyomingHeader{
		Type:          evt.Type,
		Version:       protocolVersion,
		DataLength:    len(data),
		PayloadLength: len(payload),
	})
	if err != nil {
		return fmt.Errorf("marshalling event header: %w", err)
	}

	bw := bufio.NewWriter(w)
	_, _ = bw.Write(header)
	_ = bw.WriteByte('\n')
	_, _ = bw.Write(data)
	_, _ = bw.Write(payload)
	return bw.Flush()
}

// readEvent reads one Wyoming event and its payload.
func readEvent(r *bufio.Reader) (*wyomingEvent, []byte, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	var header wyomingHeader
	if err := json.Unmarshal(line, &header); err != nil {
		return nil, nil, fmt.Errorf("invalid wyoming header %q: %w", string(line), err)
	}
	if header.Type == "" {
		return nil, nil, fmt.Errorf("wyoming header without type: %q", string(line))
	}
	if header.DataLength < 0 || header.DataLength > maxSectionLength ||
		header.PayloadLength < 0 || header.PayloadLength > maxSectionLength {
		return nil, nil, fmt.Errorf("wyoming section too large: data=%d payload=%d", header.DataLength, header.PayloadLength)
	}

	evt := &wyomingEvent{Type: header.Type, Data: header.Data}
	if header.DataLength > 0 {
		buf := make([]byte, header.DataLength)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, nil, fmt.Errorf("reading data: %w", err)
		}
		var data map[string]any
		if err := json.Unmarshal(buf, &data); err != nil {
			return nil, nil, fmt.Errorf("unmarshalling data: %w", err)
		}
		if evt.Data == nil {
			evt.Data = data
		} else {
			for k, v := range data {
				evt.Data[k] = v
			}
		}
	}

	var payload []byte
	if header.PayloadLength > 0 {
		payload = make([]byte, header.PayloadLength)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, nil, fmt.Errorf("reading payload: %w", err)
		}
	}

	return evt, payload, nil
}

// intField reads a JSON number from event data.
func intField(data map[string]any, key string, fallback int) int {
	if v, ok := data[key].(float64); ok {
		return int(v)
	}
	return fallback
}
