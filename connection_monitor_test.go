package morm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakePinger struct {
	mu    sync.Mutex
	err   error
	pings int
}

func (p *fakePinger) PingContext(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pings++
	return p.err
}

func (p *fakePinger) set(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func (p *fakePinger) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pings
}

func TestMonitorLogsTransitions(t *testing.T) {
	logs := captureLogs(t)
	p := &fakePinger{}
	cm := newConnectionMonitor(p, "blog", time.Hour, 0)
	if cm.errorInterval != time.Hour {
		t.Errorf("error interval = %v", cm.errorInterval)
	}

	if !cm.checkConnection() || len(logs.entries) != 0 {
		t.Fatal("healthy check should be silent")
	}

	p.set(errors.New("connection refused"))
	cm.checkConnection()
	cm.checkConnection()
	if cm.Healthy() || logs.count(LevelError) != 1 {
		t.Fatalf("expected one loss log, got %d", logs.count(LevelError))
	}

	p.set(nil)
	cm.checkConnection()
	if !cm.Healthy() {
		t.Fatal("monitor should be healthy again")
	}
	if e, ok := logs.find("database connection recovered"); !ok || e.fields["db"] != "blog" {
		t.Errorf("recovery not logged: %+v", e)
	}
}

func TestMonitorStartStop(t *testing.T) {
	p := &fakePinger{}
	cm := newConnectionMonitor(p, "blog", 2*time.Millisecond, time.Millisecond)
	cm.Start()

	deadline := time.Now().Add(time.Second)
	for p.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cm.Stop()
	cm.Stop()
	if p.count() < 2 {
		t.Fatal("monitor never pinged")
	}

	var nilMonitor *ConnectionMonitor
	nilMonitor.Start()
	nilMonitor.Stop()
}
