// Package transfer implements the chunked stop-and-wait download exchange
// that follows a completed download handshake.
//
// The sender announces the file, sends exactly N base64 encoded chunks and
// waits for a per-chunk acknowledgement, resending on timeout. A description
// stage and a completion marker close the exchange. The receiver side
// optionally injects faults (a dropped and a delayed, duplicated ack) to
// exercise the sender's retry logic.
package transfer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/common"
)

const (
	MsgFileInfo            = "FILE_INFO"
	MsgFileInfoAck         = "FILE_INFO_ACK"
	MsgChunk               = "CHUNK"
	MsgChunkAck            = "CHUNK_ACK"
	MsgDescription         = "DESCRIPTION"
	MsgDescriptionAck      = "DESCRIPTION_ACK"
	MsgDescriptionReceived = "DESCRIPTION_RECEIVED"
	MsgNoDescription       = "NO_DESCRIPTION"
	MsgNoDescriptionAck    = "NO_DESCRIPTION_ACK"
	MsgTransferComplete    = "TRANSFER_COMPLETE"

	ErrorPrefix = "ERROR:"

	lineAborted = ErrorPrefix + "File transfer aborted"
)

// Conn is the line transport both sides run on. netx.LineConn implements it.
type Conn interface {
	ReadLine() (string, error)
	ReadLineTimeout(d time.Duration) (string, error)
	WriteLine(s string) error
	WriteLines(lines ...string) error
}

// Payload is what a sender transmits.
type Payload struct {
	Data           []byte
	Description    string
	HasDescription bool
}

func fileInfoLine(n, total int) string {
	return fmt.Sprintf("%s:%d:%d", MsgFileInfo, n, total)
}

func chunkHeaderLine(i, n, encLen int) string {
	return fmt.Sprintf("%s:%d:%d:%d", MsgChunk, i, n, encLen)
}

func chunkAckLine(i int) string {
	return MsgChunkAck + ":" + strconv.Itoa(i)
}

func failedLine(i, attempts int) string {
	return fmt.Sprintf("%sFile transfer failed: chunk %d not acknowledged after %d attempts", ErrorPrefix, i, attempts)
}

// parseInts splits "PREFIX:a:b:..." into want integers.
func parseInts(line, prefix string, want int) ([]int, error) {
	rest, ok := strings.CutPrefix(line, prefix+":")
	if !ok {
		return nil, fmt.Errorf("%w: expected %s, got %q", common.ErrProtocolViolation, prefix, line)
	}
	parts := strings.Split(rest, ":")
	if len(parts) != want {
		return nil, fmt.Errorf("%w: malformed %s line %q", common.ErrProtocolViolation, prefix, line)
	}
	out := make([]int, want)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("%w: malformed %s line %q", common.ErrProtocolViolation, prefix, line)
		}
		out[i] = v
	}
	return out, nil
}

// parseChunkAck returns the index of a CHUNK_ACK line.
func parseChunkAck(line string) (int, bool) {
	v, err := parseInts(line, MsgChunkAck, 1)
	if err != nil {
		return 0, false
	}
	return v[0], true
}

// IsChunkAck reports whether line is a CHUNK_ACK message. Late duplicate acks
// can reach the command loop after a transfer; callers use this to drop them.
func IsChunkAck(line string) bool {
	_, ok := parseChunkAck(line)
	return ok
}
