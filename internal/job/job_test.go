package job

import "testing"

func TestSubJobWeightPropagates(t *testing.T) {
	parent := New("refresh")
	a := parent.NewSubJob(0.25, "download")
	b := parent.NewSubJob(0.75, "parse")

	a.SetProgress(1)
	if got := parent.Progress(); got < 0.24 || got > 0.26 {
		t.Fatalf("parent progress after sub-job a = %v, want ~0.25", got)
	}

	b.SetProgress(1)
	if got := parent.Progress(); got < 0.99 {
		t.Fatalf("parent progress after both sub-jobs = %v, want ~1.0", got)
	}
}

func TestShouldProceedChecksAncestors(t *testing.T) {
	parent := New("refresh")
	child := parent.NewSubJob(1, "download")

	if !child.ShouldProceed() {
		t.Fatalf("fresh child should proceed")
	}

	parent.Cancel()
	if child.ShouldProceed() {
		t.Fatalf("child should not proceed once parent is cancelled")
	}
}

func TestSetErrorKeepsFirstMessage(t *testing.T) {
	j := New("load")
	j.SetError("first failure")
	j.SetError("second failure")
	if got := j.Error(); got != "first failure" {
		t.Fatalf("Error() = %q, want first recorded message", got)
	}
	if j.ShouldProceed() {
		t.Fatalf("job with an error should not proceed")
	}
}

func TestCompleteClampsProgress(t *testing.T) {
	j := New("scan")
	j.SetProgress(0.3)
	j.Complete()
	if j.Progress() != 1 {
		t.Fatalf("Progress() after Complete = %v, want 1", j.Progress())
	}
	if !j.Completed() {
		t.Fatalf("expected Completed() to be true")
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	j := New("download")
	var got []State
	j.Subscribe(func(s State) { got = append(got, s) })

	j.SetProgress(0.5)
	j.Complete()

	if len(got) != 2 {
		t.Fatalf("expected 2 change events, got %d", len(got))
	}
	if got[0].Progress != 0.5 {
		t.Fatalf("first event progress = %v, want 0.5", got[0].Progress)
	}
	if !got[1].Completed {
		t.Fatalf("second event should be marked completed")
	}
}
