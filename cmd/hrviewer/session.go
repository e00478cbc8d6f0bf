package main

import (
	"context"
	"errors"
	"image"
	"strings"
	"sync"

	"github.com/iafilius/ClusterHR/src/gaia"
	"github.com/iafilius/ClusterHR/src/hrplot"
	"github.com/iafilius/ClusterHR/src/logx"
)

type viewState int

const (
	stateIdle viewState = iota
	stateRendering
)

func (s viewState) String() string {
	if s == stateRendering {
		return "rendering"
	}
	return "idle"
}

// runner is satisfied by *gaia.Pipeline.
type runner interface {
	Run(ctx context.Context, cluster string) (*gaia.Result, error)
}

// outcome is what one submission produced. Plot and Image are nil when the result table
// lacked the plot columns; Err is set when fetching or adapting failed.
type outcome struct {
	Cluster string
	Result  *gaia.Result
	Plot    *hrplot.Plot
	Image   image.Image
	Err     error
}

// Canceled reports whether the run was aborted by the user or a newer submission.
func (o outcome) Canceled() bool { return errors.Is(o.Err, context.Canceled) }

// session runs submissions on a worker goroutine. Only the newest submission may deliver
// its outcome; older ones are canceled and their results dropped.
type session struct {
	pipe runner
	size func() (int, int)
	post func(func())

	onStart func(cluster string)
	onDone  func(outcome)

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	state  viewState
	wg     sync.WaitGroup
}

// newSession wires a session. post must run f on the UI goroutine (fyne.Do in the app).
func newSession(pipe runner, size func() (int, int), post func(func())) *session {
	if size == nil {
		size = func() (int, int) { return hrplot.DefaultWidth, hrplot.DefaultHeight }
	}
	if post == nil {
		post = func(f func()) { f() }
	}
	return &session{pipe: pipe, size: size, post: post}
}

// Submit starts a run for cluster, canceling any run in flight. The name is only trimmed;
// the client rejects a blank one and VizieR decides whether the rest resolve.
func (s *session) Submit(cluster string) {
	cluster = strings.TrimSpace(cluster)
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.state = stateRendering
	s.mu.Unlock()

	if s.onStart != nil {
		s.onStart(cluster)
	}
	w, h := s.size()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		out := s.run(ctx, cluster, w, h)
		s.post(func() { s.deliver(gen, out) })
	}()
}

func (s *session) run(ctx context.Context, cluster string, w, h int) outcome {
	out := outcome{Cluster: cluster}
	res, err := s.pipe.Run(ctx, cluster)
	if err != nil {
		out.Err = err
		return out
	}
	out.Result = res
	p, ok := hrplot.Build(res.Table, cluster)
	if !ok {
		return out
	}
	p.Caption = res.Stats.String()
	img, err := hrplot.Render(p, w, h)
	if err != nil {
		out.Err = err
		return out
	}
	out.Plot, out.Image = p, img
	return out
}

func (s *session) deliver(gen uint64, out outcome) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		logx.Debugf("dropping stale result for %q", out.Cluster)
		return
	}
	s.cancel = nil
	s.state = stateIdle
	s.mu.Unlock()
	if s.onDone != nil {
		s.onDone(out)
	}
}

// Cancel aborts the run in flight, if any. Its outcome is still delivered as canceled.
func (s *session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *session) State() viewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close cancels any run and waits for workers to finish.
func (s *session) Close() {
	s.Cancel()
	s.wg.Wait()
}
