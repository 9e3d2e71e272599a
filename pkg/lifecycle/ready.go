package lifecycle

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// maxLogLine bounds how much of a single log line is kept for matching.
// Longer lines are matched on their first maxLogLine bytes and the rest is
// discarded, so one oversized line never ends the wait.
const maxLogLine = 1 << 20

// LogSource streams a container's combined output.
type LogSource interface {
	Logs(ctx context.Context, nameOrID string) (io.ReadCloser, error)
}

type readiness struct {
	state ReadinessState
	err   error
}

// WaitReady follows the container's combined log stream until a line
// contains marker (Ready), the stream closes (StreamEnded) or timeout
// elapses (TimedOut), whichever comes first. The stream reader and the
// timer race; the loser is abandoned and the stream released in the
// background. Cancelling ctx returns Pending with ctx's error.
func WaitReady(ctx context.Context, logs LogSource, nameOrID, marker string, timeout time.Duration) (ReadinessState, error) {
	if marker == "" {
		return Pending, errors.New("readiness marker must not be empty")
	}
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan readiness, 1)
	go func() {
		done <- scanForMarker(streamCtx, logs, nameOrID, marker)
	}()

	select {
	case r := <-done:
		if err := ctx.Err(); err != nil {
			return Pending, err
		}
		return r.state, r.err
	case <-timer.C:
		return TimedOut, newError(ErrReadinessTimeout, "wait", nameOrID,
			fmt.Errorf("marker %q not seen within %s", marker, timeout))
	case <-ctx.Done():
		return Pending, ctx.Err()
	}
}

func scanForMarker(ctx context.Context, logs LogSource, nameOrID, marker string) readiness {
	rc, err := logs.Logs(ctx, nameOrID)
	if err != nil {
		return readiness{StreamEnded, newError(ErrReadinessStreamEnded, "wait", nameOrID, err)}
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, 64*1024)
	want := []byte(marker)
	var line []byte
	for {
		frag, isPrefix, err := br.ReadLine()
		if room := maxLogLine - len(line); room > 0 {
			line = append(line, frag[:min(len(frag), room)]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			return readiness{StreamEnded, newError(ErrReadinessStreamEnded, "wait", nameOrID, err)}
		}
		if isPrefix {
			continue
		}
		if bytes.Contains(line, want) {
			return readiness{state: Ready}
		}
		line = line[:0]
	}
}
