package protocol

import (
	"bufio"
	"fmt"
	"io"

	"github.com/zsiec/moqt/internal/wire"
)

// MaxControlMessageSize bounds a single control message payload so a
// malicious or buggy peer cannot force unbounded allocation from a length
// prefix alone.
const MaxControlMessageSize = 1 << 20

// ReadControlMsg reads one control message from the control stream.
// Wire format: type(varint) | length(varint) | payload[length].
//
// This uses a varint length prefix rather than a fixed uint16-BE length,
// matching original_source/moqt/messages.py's MessageBuilder.
func ReadControlMsg(r io.Reader) (uint64, []byte, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		bb := bufio.NewReader(r)
		br = bb
		r = bb
	}

	msgType, err := wire.ReadVarintFrom(br)
	if err != nil {
		return 0, nil, fmt.Errorf("read message type: %w", err)
	}

	length, err := wire.ReadVarintFrom(br)
	if err != nil {
		return 0, nil, fmt.Errorf("read message length: %w", err)
	}
	if length > MaxControlMessageSize {
		return 0, nil, ErrMessageTooLarge
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return 0, nil, fmt.Errorf("read message payload: %w", err)
		}
	}

	return msgType, payload, nil
}

// WriteControlMsg writes a control message as a single Write call so it
// stays atomic on a stream shared by multiple logical writers guarded by a
// mutex upstream.
func WriteControlMsg(w io.Writer, msgType uint64, payload []byte) error {
	buf := wire.AppendVarint(nil, msgType)
	buf = wire.AppendVarint(buf, uint64(len(payload)))
	buf = append(buf, payload...)

	_, err := w.Write(buf)
	return err
}
