package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/rickgorman/ephemera/pkg/container"
)

// logScript is what a fake container prints.
type logScript struct {
	lines    []string
	keepOpen bool // leave the stream open after the last line
}

type fakeContainer struct {
	id      string
	cfg     container.RunConfig
	running bool
}

// fakeRuntime is an in-memory Runtime.
type fakeRuntime struct {
	mu sync.Mutex

	tags       []string
	pullStream string
	pullErr    error
	pulled     []string

	createErr     error
	createLateErr error // returned after the container was registered
	startErrs []error // consumed one per Start call
	removeErr error

	scripts map[string]logScript // by image ref
	logsErr error

	containers map[string]*fakeContainer // by name
	created    []container.RunConfig
	removed    []string
	nextID     int
}

func newFakeRuntime(tags ...string) *fakeRuntime {
	return &fakeRuntime{
		tags:       tags,
		scripts:    make(map[string]logScript),
		containers: make(map[string]*fakeContainer),
	}
}

func (f *fakeRuntime) ImageTags(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tags...), nil
}

func (f *fakeRuntime) PullImage(ctx context.Context, ref string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	f.pulled = append(f.pulled, ref)
	return io.NopCloser(strings.NewReader(f.pullStream)), nil
}

func (f *fakeRuntime) Create(ctx context.Context, cfg container.RunConfig) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	if _, exists := f.containers[cfg.Name]; exists {
		return "", fmt.Errorf("Conflict. The container name %q is already in use", cfg.Name)
	}
	f.nextID++
	id := fmt.Sprintf("%064x", f.nextID)
	f.containers[cfg.Name] = &fakeContainer{id: id, cfg: cfg}
	f.created = append(f.created, cfg)
	if f.createLateErr != nil {
		return "", f.createLateErr
	}
	return id, nil
}

func (f *fakeRuntime) Start(ctx context.Context, nameOrID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.startErrs) > 0 {
		err := f.startErrs[0]
		f.startErrs = f.startErrs[1:]
		if err != nil {
			return err
		}
	}
	c := f.lookup(nameOrID)
	if c == nil {
		return fmt.Errorf("%w: %s", container.ErrNotFound, nameOrID)
	}
	c.running = true
	return nil
}

func (f *fakeRuntime) Logs(ctx context.Context, nameOrID string) (io.ReadCloser, error) {
	f.mu.Lock()
	if f.logsErr != nil {
		f.mu.Unlock()
		return nil, f.logsErr
	}
	c := f.lookup(nameOrID)
	if c == nil {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", container.ErrNotFound, nameOrID)
	}
	script, ok := f.scripts[c.cfg.Image]
	f.mu.Unlock()

	if !ok {
		script = logScript{lines: []string{"starting", "listening on :8080"}, keepOpen: true}
	}
	return streamScript(ctx, script), nil
}

func (f *fakeRuntime) Remove(ctx context.Context, nameOrID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	c := f.lookup(nameOrID)
	if c == nil {
		return fmt.Errorf("%w: %s", container.ErrNotFound, nameOrID)
	}
	delete(f.containers, c.cfg.Name)
	f.removed = append(f.removed, c.cfg.Name)
	return nil
}

func (f *fakeRuntime) Exists(ctx context.Context, nameOrID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookup(nameOrID) != nil, nil
}

func (f *fakeRuntime) lookup(nameOrID string) *fakeContainer {
	if c, ok := f.containers[nameOrID]; ok {
		return c
	}
	for _, c := range f.containers {
		if c.id == nameOrID {
			return c
		}
	}
	return nil
}

func (f *fakeRuntime) exists(name string) bool {
	ok, _ := f.Exists(context.Background(), name)
	return ok
}

// streamScript writes script's lines to a pipe. A kept-open stream closes
// when ctx is cancelled, like a followed Docker log request.
func streamScript(ctx context.Context, script logScript) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		for _, line := range script.lines {
			if _, err := io.WriteString(pw, line+"\n"); err != nil {
				return
			}
		}
		if script.keepOpen {
			<-ctx.Done()
			pw.CloseWithError(ctx.Err())
			return
		}
		pw.Close()
	}()
	return pr
}

// seqPorts hands out increasing ports starting after base.
type seqPorts struct {
	mu   sync.Mutex
	next int
	err  error
}

func (s *seqPorts) Allocate() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.next++
	return s.next, nil
}

func newTestProvisioner(rt *fakeRuntime) *Provisioner {
	p := NewProvisioner(rt)
	p.Ports = &seqPorts{next: 40000}
	p.Names = container.NewNameGenerator(rand.NewPCG(7, 11))
	return p
}

var errBoom = errors.New("boom")
