package transfer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/logging"
	"github.com/dmitrijs2005/socialnet/internal/netx"
)

const (
	DefaultChunkCount  = 10
	DefaultAckTimeout  = 5 * time.Second
	DefaultMaxAttempts = 3
)

type SenderConfig struct {
	ChunkCount  int
	AckTimeout  time.Duration
	MaxAttempts int
	// ReplyTimeout bounds the non-chunk waits (FILE_INFO_ACK and the
	// description stage). Zero means AckTimeout * MaxAttempts.
	ReplyTimeout time.Duration
}

func (c SenderConfig) withDefaults() SenderConfig {
	if c.ChunkCount < 1 {
		c.ChunkCount = DefaultChunkCount
	}
	if c.AckTimeout <= 0 {
		c.AckTimeout = DefaultAckTimeout
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.ReplyTimeout <= 0 {
		c.ReplyTimeout = c.AckTimeout * time.Duration(c.MaxAttempts)
	}
	return c
}

type Sender struct {
	cfg SenderConfig
	log logging.Logger
}

func NewSender(cfg SenderConfig, log logging.Logger) *Sender {
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	return &Sender{cfg: cfg.withDefaults(), log: log.With("module", "transfer.sender")}
}

// Send runs the whole exchange on conn. Errors wrapping
// common.ErrProtocolViolation or common.ErrTransferFailed mean the transfer
// was aborted but the connection is still usable; any other error is an
// I/O failure.
func (s *Sender) Send(ctx context.Context, conn Conn, p Payload) error {
	chunks := Split(p.Data, s.cfg.ChunkCount)
	n := len(chunks)

	if err := conn.WriteLine(fileInfoLine(n, len(p.Data))); err != nil {
		return err
	}
	if err := s.expect(ctx, conn, MsgFileInfoAck); err != nil {
		return err
	}

	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.sendChunk(ctx, conn, i+1, n, c); err != nil {
			return err
		}
	}

	if p.HasDescription {
		if err := conn.WriteLine(fmt.Sprintf("%s:%d", MsgDescription, len(p.Description))); err != nil {
			return err
		}
		if err := s.expect(ctx, conn, MsgDescriptionAck); err != nil {
			return err
		}
		if err := conn.WriteLine(p.Description); err != nil {
			return err
		}
		if err := s.expect(ctx, conn, MsgDescriptionReceived); err != nil {
			return err
		}
	} else {
		if err := conn.WriteLine(MsgNoDescription); err != nil {
			return err
		}
		if err := s.expect(ctx, conn, MsgNoDescriptionAck); err != nil {
			return err
		}
	}

	if err := conn.WriteLine(MsgTransferComplete); err != nil {
		return err
	}
	s.log.Info(ctx, "transfer completed", "chunks", n, "bytes", len(p.Data))
	return nil
}

func (s *Sender) sendChunk(ctx context.Context, conn Conn, i, n int, data []byte) error {
	enc := base64.StdEncoding.EncodeToString(data)
	header := chunkHeaderLine(i, n, len(enc))

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if err := conn.WriteLines(header, enc); err != nil {
			return err
		}
		s.log.Debug(ctx, "sent chunk", "chunk", i, "of", n, "bytes", len(data), "attempt", attempt)

		err := s.waitAck(conn, i)
		if err == nil {
			s.log.Debug(ctx, "chunk acknowledged", "chunk", i)
			return nil
		}
		if !netx.IsTimeout(err) {
			if errors.Is(err, common.ErrProtocolViolation) {
				_ = conn.WriteLine(lineAborted)
			}
			return err
		}
		s.log.Warn(ctx, "Server did not receive ACK", "chunk", i, "attempt", attempt, "timeout", s.cfg.AckTimeout)
	}

	if err := conn.WriteLine(failedLine(i, s.cfg.MaxAttempts)); err != nil {
		return err
	}
	return fmt.Errorf("%w: chunk %d not acknowledged after %d attempts", common.ErrTransferFailed, i, s.cfg.MaxAttempts)
}

// waitAck waits until CHUNK_ACK:i arrives. Acks for earlier chunks are
// dropped without extending the deadline.
func (s *Sender) waitAck(conn Conn, i int) error {
	deadline := time.Now().Add(s.cfg.AckTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("chunk %d: %w", i, errAckTimeout)
		}
		line, err := conn.ReadLineTimeout(remaining)
		if err != nil {
			return err
		}
		j, ok := parseChunkAck(line)
		switch {
		case ok && j == i:
			return nil
		case ok && j < i:
			continue
		default:
			return fmt.Errorf("%w: waiting for %s, got %q", common.ErrProtocolViolation, chunkAckLine(i), line)
		}
	}
}

// expect reads the next non-stale line and requires it to equal want.
func (s *Sender) expect(ctx context.Context, conn Conn, want string) error {
	deadline := time.Now().Add(s.cfg.ReplyTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return s.abort(ctx, conn, fmt.Errorf("%w: no %s", common.ErrTransferFailed, want))
		}
		line, err := conn.ReadLineTimeout(remaining)
		if err != nil {
			if netx.IsTimeout(err) {
				return s.abort(ctx, conn, fmt.Errorf("%w: no %s", common.ErrTransferFailed, want))
			}
			return err
		}
		if line == want {
			return nil
		}
		if IsChunkAck(line) {
			continue
		}
		return s.abort(ctx, conn, fmt.Errorf("%w: expected %s, got %q", common.ErrProtocolViolation, want, line))
	}
}

func (s *Sender) abort(ctx context.Context, conn Conn, cause error) error {
	s.log.Warn(ctx, "transfer aborted", "error", cause)
	if err := conn.WriteLine(lineAborted); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// errAckTimeout satisfies netx.IsTimeout so the retry loop treats an
// exhausted wait like a socket deadline.
var errAckTimeout error = timeoutError{}

type timeoutError struct{}

func (timeoutError) Error() string   { return "ack timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }
