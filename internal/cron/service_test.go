package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/dcervantes/equiplend-backend/pkg/logger"
)

type fakeLock struct {
	held   bool
	busy   bool
	relErr error
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.busy || f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	return f.relErr
}

type countingJob struct {
	name string
	err  error
	runs int
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func newCronService(t *testing.T, registry *Registry, lock Lock) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
	service, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestRunCycleContinuesPastFailingJob(t *testing.T) {
	healthy := &countingJob{name: "healthy"}
	broken := &countingJob{name: "broken", err: errors.New("boom")}
	trailing := &countingJob{name: "trailing"}

	service := newCronService(t, NewRegistry(broken, healthy, trailing), &fakeLock{})
	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}

	for _, job := range []*countingJob{healthy, broken, trailing} {
		if job.runs != 1 {
			t.Fatalf("expected %s to run once, ran %d", job.name, job.runs)
		}
	}
}

func TestRunCycleSkipsWhenLockHeldElsewhere(t *testing.T) {
	job := &countingJob{name: "guarded"}
	service := newCronService(t, NewRegistry(job), &fakeLock{busy: true})

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected no runs while lock held elsewhere, ran %d", job.runs)
	}
}

func TestRunCycleReleasesLock(t *testing.T) {
	lock := &fakeLock{}
	service := newCronService(t, NewRegistry(&countingJob{name: "any"}), lock)

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if lock.held {
		t.Fatal("lock was not released after the cycle")
	}
}
