// Copyright ©2024 The puretabix Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package workerpool

import (
	"context"
	"errors"
	"sort"
	"testing"
)

func TestRunDeliversAllItems(t *testing.T) {
	jobs := map[int]Generator[string]{
		0: func(ctx context.Context, emit func(string)) error {
			emit("a0")
			emit("b0")
			emit("c0")
			return nil
		},
		1: func(ctx context.Context, emit func(string)) error {
			emit("a1")
			emit("b1")
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := Run(ctx, jobs, 2)

	var got []string
	err := Collect(ch, cancel, func(b Batch[int, string]) {
		got = append(got, b.Items...)
	})
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}

	sort.Strings(got)
	want := []string{"a0", "a1", "b0", "b1", "c0"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRunPropagatesWorkerError(t *testing.T) {
	wantErr := errors.New("boom")
	jobs := map[string]Generator[int]{
		"ok": func(ctx context.Context, emit func(int)) error {
			emit(1)
			return nil
		},
		"bad": func(ctx context.Context, emit func(int)) error {
			emit(2)
			return wantErr
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := Run(ctx, jobs, 8)
	err := Collect(ch, cancel, func(b Batch[string, int]) {})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}

func TestRunRespectsCancellation(t *testing.T) {
	jobs := map[int]Generator[int]{
		0: func(ctx context.Context, emit func(int)) error {
			for i := 0; i < 1_000_000; i++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				emit(i)
			}
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := Run(ctx, jobs, 4)
	cancel()

	for range ch {
		// drain; the point is that this terminates.
	}
}
