package pipeline

import (
	"context"
	"testing"
	"time"
)

func TestRunnerRunsImmediately(t *testing.T) {
	mail := defaultFakeMail()
	svc := newTestService(mail, &fakeEngine{reply: "A long enough reply."}, &fakeAI{}, newFakeProcessed())
	runner := NewRunner(svc, Options{}, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner.Start(ctx)
	defer runner.Stop()

	select {
	case report := <-runner.Results():
		if report.Drafted() != 1 {
			t.Errorf("Drafted() = %d", report.Drafted())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no report from the initial run")
	}

	status := runner.Status()
	if status.State != RunIdle || status.LastRun.IsZero() {
		t.Errorf("status = %+v", status)
	}
}

func TestRunnerTrigger(t *testing.T) {
	mail := defaultFakeMail()
	svc := newTestService(mail, &fakeEngine{reply: "A long enough reply."}, &fakeAI{}, newFakeProcessed())
	runner := NewRunner(svc, Options{Reprocess: true}, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner.Start(ctx)
	defer runner.Stop()

	<-runner.Results()
	runner.Trigger()

	select {
	case <-runner.Results():
	case <-time.After(5 * time.Second):
		t.Fatal("no report after trigger")
	}
}

func TestRunnerFailureKeepsRunning(t *testing.T) {
	mail := defaultFakeMail()
	mail.accountID = ""
	svc := newTestService(mail, &fakeEngine{}, &fakeAI{}, newFakeProcessed())
	runner := NewRunner(svc, Options{}, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner.Start(ctx)
	defer runner.Stop()

	deadline := time.After(5 * time.Second)
	for {
		status := runner.Status()
		if status.State == RunFailed && status.Error != nil {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("runner never reported the failure: %+v", status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRunnerStartTwice(t *testing.T) {
	mail := defaultFakeMail()
	svc := newTestService(mail, &fakeEngine{reply: "A long enough reply."}, &fakeAI{}, newFakeProcessed())
	runner := NewRunner(svc, Options{}, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner.Start(ctx)
	runner.Start(ctx)
	defer runner.Stop()

	<-runner.Results()
	select {
	case <-runner.Results():
		t.Error("second Start must not produce a duplicate run")
	case <-time.After(200 * time.Millisecond):
	}
}
