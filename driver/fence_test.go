// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"testing"
	"time"

	"github.com/gogpu/a3d"
)

func TestFenceUnarmed(t *testing.T) {
	f := NewFence()
	if f.IsSignaled() {
		t.Error("unarmed fence signaled")
	}
	if f.Wait(a3d.Infinite) {
		t.Error("unarmed Wait returned true")
	}
}

func TestFenceSignalResets(t *testing.T) {
	d, _, _ := newTestDevice(t)
	q := newTestQueue(t, d)
	f := NewFence()
	addBuffer(t, q)
	if err := q.Execute(f); err != nil {
		t.Fatal(err)
	}
	if !f.IsSignaled() {
		t.Fatal("fence not signaled after completed submit")
	}
	if f.IsSignaled() {
		t.Error("IsSignaled did not reset the fence")
	}

	addBuffer(t, q)
	if err := q.Execute(f); err != nil {
		t.Fatal(err)
	}
	if !f.Wait(a3d.Infinite) {
		t.Fatal("Wait on completed submit returned false")
	}
	if f.Wait(0) {
		t.Error("Wait did not reset the fence")
	}
}

func TestFenceWaitTimeoutResets(t *testing.T) {
	d, hq, _ := newTestDevice(t)
	q := newTestQueue(t, d)
	f := NewFence()
	addBuffer(t, q)
	hq.holdCompletion()
	if err := q.Execute(f); err != nil {
		t.Fatal(err)
	}
	if f.Wait(time.Millisecond) {
		t.Fatal("Wait succeeded on held work")
	}
	hq.complete()
	if f.IsSignaled() {
		t.Error("timed out Wait left the fence armed")
	}
}

func TestFenceWithoutWorkObservesLastSubmit(t *testing.T) {
	d, hq, _ := newTestDevice(t)
	q := newTestQueue(t, d)
	addBuffer(t, q)
	hq.holdCompletion()
	if err := q.Execute(nil); err != nil {
		t.Fatal(err)
	}
	f := NewFence()
	if err := q.Execute(f); err != nil {
		t.Fatal(err)
	}
	if f.IsSignaled() {
		t.Fatal("fence signaled before the previous submit completed")
	}
	hq.complete()
	if !f.IsSignaled() {
		t.Error("fence not signaled after the previous submit completed")
	}
}

func TestFenceRelease(t *testing.T) {
	d, hq, _ := newTestDevice(t)
	q := newTestQueue(t, d)
	f := NewFence()
	addBuffer(t, q)
	hq.holdCompletion()
	if err := q.Execute(f); err != nil {
		t.Fatal(err)
	}

	done := make(chan bool)
	go func() { done <- f.Wait(20 * time.Millisecond) }()
	time.Sleep(time.Millisecond)
	f.Release()
	<-done
	hq.complete()

	if f.Wait(a3d.Infinite) {
		t.Error("Wait after Release returned true")
	}
	if f.IsSignaled() {
		t.Error("released fence signaled")
	}
}
