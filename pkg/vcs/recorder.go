package vcs

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"
)

// Op is one recorded Handler call.
type Op struct {
	Kind    string
	Paths   []string
	Name    string
	Author  string
	Email   string
	Message string
	When    time.Time
}

// Recorder is an in-memory Handler. It records every call and applies the
// working-tree side of Remove and Move, so an export against it leaves the
// same files behind as one against git. Fail lets tests inject errors by
// operation kind.
type Recorder struct {
	mu   sync.Mutex
	ops  []Op
	Fail map[string]error
}

var _ Handler = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{Fail: make(map[string]error)}
}

func (r *Recorder) record(op Op) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.Fail[op.Kind]; err != nil {
		return err
	}
	r.ops = append(r.ops, op)
	return nil
}

// Ops returns a copy of the recorded calls.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op(nil), r.ops...)
}

// OfKind returns the recorded calls of one kind.
func (r *Recorder) OfKind(kind string) []Op {
	var out []Op
	for _, op := range r.Ops() {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

func (r *Recorder) Init(ctx context.Context) error {
	return r.record(Op{Kind: "init"})
}

func (r *Recorder) SetConfig(ctx context.Context, name, value string) error {
	return r.record(Op{Kind: "config", Name: name, Message: value})
}

func (r *Recorder) Add(ctx context.Context, paths ...string) error {
	return r.record(Op{Kind: "add", Paths: paths})
}

func (r *Recorder) AddAll(ctx context.Context) error {
	return r.record(Op{Kind: "add-all"})
}

func (r *Recorder) Remove(ctx context.Context, path string, recursive bool) error {
	kind := "rm"
	if recursive {
		kind = "rm-r"
	}
	if err := r.record(Op{Kind: kind, Paths: []string{path}}); err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

func (r *Recorder) Move(ctx context.Context, src, dst string) error {
	if err := r.record(Op{Kind: "mv", Paths: []string{src, dst}}); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
	}
	return nil
}

func (r *Recorder) Commit(ctx context.Context, author, email, message string, when time.Time) (bool, error) {
	if err := r.record(Op{Kind: "commit", Author: author, Email: email, Message: message, When: when}); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Recorder) Tag(ctx context.Context, name, tagger, email, message string, when time.Time) (bool, error) {
	if err := r.record(Op{Kind: "tag", Name: name, Author: tagger, Email: email, Message: message, When: when}); err != nil {
		return false, err
	}
	return true, nil
}
