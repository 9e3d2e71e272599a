package container

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
)

// Logs follows a container's stdout and stderr and returns them
// demultiplexed into a single stream. The stream ends when the container
// exits or ctx is cancelled. Closing it releases the daemon connection.
func (c *Client) Logs(ctx context.Context, nameOrID string) (io.ReadCloser, error) {
	rc, err := c.cli.ContainerLogs(ctx, nameOrID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, nameOrID)
		}
		return nil, fmt.Errorf("failed to stream container logs: %w", err)
	}

	return demux(rc), nil
}

// logStream is the read end of a demultiplexed log stream.
type logStream struct {
	*io.PipeReader
	src io.Closer
}

// Close closes both the pipe and the daemon response body, which unblocks
// the copying goroutine.
func (s *logStream) Close() error {
	err := s.src.Close()
	_ = s.PipeReader.Close()
	return err
}

// demux splits Docker's multiplexed stdout/stderr framing back into plain
// bytes. Containers are always created without a TTY, so the stream is
// always multiplexed.
func demux(rc io.ReadCloser) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		_, err := stdcopy.StdCopy(pw, pw, rc)
		pw.CloseWithError(err)
	}()
	return &logStream{PipeReader: pr, src: rc}
}
