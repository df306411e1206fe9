package transfer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/logging"
)

// FaultPlan describes the acknowledgement faults a Receiver injects.
// A zero index disables the corresponding fault.
type FaultPlan struct {
	// DropFirstAck is the chunk whose first transmission is not acknowledged.
	DropFirstAck int
	// DelayedDuplicateAck is the chunk whose ack is sent after Delay and then
	// repeated DuplicateGap later.
	DelayedDuplicateAck int
	Delay               time.Duration
	DuplicateGap        time.Duration
}

func DefaultFaultPlan() FaultPlan {
	return FaultPlan{
		DropFirstAck:        3,
		DelayedDuplicateAck: 6,
		Delay:               3 * time.Second,
		DuplicateGap:        500 * time.Millisecond,
	}
}

// NoFaults acknowledges every chunk immediately.
func NoFaults() FaultPlan { return FaultPlan{} }

// Result is the reassembled download.
type Result struct {
	Data           []byte
	Description    string
	HasDescription bool
	Chunks         int
	// Receptions[i-1] counts how often chunk i arrived.
	Receptions []int
	// DuplicateAcks counts acks sent a second time for the same reception.
	DuplicateAcks int
}

type Receiver struct {
	plan FaultPlan
	// idle bounds every read; zero waits forever.
	idle time.Duration
	log  logging.Logger
}

func NewReceiver(plan FaultPlan, idle time.Duration, log logging.Logger) *Receiver {
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	return &Receiver{plan: plan, idle: idle, log: log.With("module", "transfer.receiver")}
}

// Receive runs the receiving side, starting with the FILE_INFO line.
func (r *Receiver) Receive(ctx context.Context, conn Conn) (*Result, error) {
	line, err := r.read(conn)
	if err != nil {
		return nil, err
	}
	if err := senderError(line); err != nil {
		return nil, err
	}
	info, err := parseInts(line, MsgFileInfo, 2)
	if err != nil {
		return nil, err
	}
	n, total := info[0], info[1]
	if n < 1 {
		return nil, fmt.Errorf("%w: chunk count %d", common.ErrProtocolViolation, n)
	}
	if err := conn.WriteLine(MsgFileInfoAck); err != nil {
		return nil, err
	}
	r.log.Debug(ctx, "receiving file", "chunks", n, "bytes", total)

	var (
		chunks = make([][]byte, n)
		seen   = make([]int, n)
		res    = &Result{Chunks: n}
		dups   sync.WaitGroup
		dupN   atomic.Int32
	)
	defer dups.Wait()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := r.read(conn)
		if err != nil {
			return nil, err
		}
		if err := senderError(line); err != nil {
			return nil, err
		}

		switch {
		case strings.HasPrefix(line, MsgChunk+":"):
			h, err := parseInts(line, MsgChunk, 3)
			if err != nil {
				return nil, err
			}
			i, count, encLen := h[0], h[1], h[2]
			if i < 1 || i > n || count != n {
				return nil, fmt.Errorf("%w: chunk %d/%d outside 1..%d", common.ErrProtocolViolation, i, count, n)
			}
			payload, err := r.read(conn)
			if err != nil {
				return nil, err
			}
			if len(payload) != encLen {
				return nil, fmt.Errorf("%w: chunk %d length %d, announced %d", common.ErrProtocolViolation, i, len(payload), encLen)
			}
			data, err := base64.StdEncoding.DecodeString(payload)
			if err != nil {
				return nil, fmt.Errorf("%w: chunk %d: %v", common.ErrProtocolViolation, i, err)
			}
			chunks[i-1] = data
			seen[i-1]++

			if err := r.ack(ctx, conn, i, seen[i-1], &dups, &dupN); err != nil {
				return nil, err
			}

		case line == MsgNoDescription:
			dups.Wait()
			if err := conn.WriteLine(MsgNoDescriptionAck); err != nil {
				return nil, err
			}

		case strings.HasPrefix(line, MsgDescription+":"):
			if _, err := strconv.Atoi(strings.TrimPrefix(line, MsgDescription+":")); err != nil {
				return nil, fmt.Errorf("%w: malformed %q", common.ErrProtocolViolation, line)
			}
			dups.Wait()
			if err := conn.WriteLine(MsgDescriptionAck); err != nil {
				return nil, err
			}
			desc, err := r.read(conn)
			if err != nil {
				return nil, err
			}
			res.Description, res.HasDescription = desc, true
			if err := conn.WriteLine(MsgDescriptionReceived); err != nil {
				return nil, err
			}

		case line == MsgTransferComplete:
			dups.Wait()
			var buf []byte
			for i, c := range chunks {
				if seen[i] == 0 {
					return nil, fmt.Errorf("%w: chunk %d never received", common.ErrTransferFailed, i+1)
				}
				buf = append(buf, c...)
			}
			if len(buf) != total {
				return nil, fmt.Errorf("%w: received %d bytes, announced %d", common.ErrTransferFailed, len(buf), total)
			}
			if buf == nil {
				buf = []byte{}
			}
			res.Data = buf
			res.Receptions = seen
			res.DuplicateAcks = int(dupN.Load())
			r.log.Info(ctx, "The transmission is completed.", "bytes", total)
			return res, nil

		default:
			return nil, fmt.Errorf("%w: unexpected %q", common.ErrProtocolViolation, line)
		}
	}
}

// ack acknowledges the seen-th reception of chunk i according to the plan.
func (r *Receiver) ack(ctx context.Context, conn Conn, i, seen int, dups *sync.WaitGroup, sent *atomic.Int32) error {
	first := seen == 1

	switch {
	case first && i == r.plan.DropFirstAck:
		r.log.Info(ctx, "withholding ack", "chunk", i)
		return nil

	case first && i == r.plan.DelayedDuplicateAck:
		r.log.Info(ctx, "delaying ack", "chunk", i, "delay", r.plan.Delay)
		if err := sleep(ctx, r.plan.Delay); err != nil {
			return err
		}
		if err := conn.WriteLine(chunkAckLine(i)); err != nil {
			return err
		}
		// The duplicate goes out concurrently so the main loop keeps
		// draining the sender's next chunk.
		dups.Add(1)
		go func() {
			defer dups.Done()
			if sleep(ctx, r.plan.DuplicateGap) != nil {
				return
			}
			r.log.Info(ctx, "sending duplicate ack", "chunk", i)
			if conn.WriteLine(chunkAckLine(i)) == nil {
				sent.Add(1)
			}
		}()
		return nil

	default:
		return conn.WriteLine(chunkAckLine(i))
	}
}

func (r *Receiver) read(conn Conn) (string, error) {
	if r.idle > 0 {
		return conn.ReadLineTimeout(r.idle)
	}
	return conn.ReadLine()
}

func senderError(line string) error {
	if msg, ok := strings.CutPrefix(line, ErrorPrefix); ok {
		return fmt.Errorf("%w: %s", common.ErrTransferFailed, msg)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
