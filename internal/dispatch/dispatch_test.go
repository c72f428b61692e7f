package dispatch

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ownerLoop binds a dispatcher on its own goroutine and executes calls on it.
type ownerLoop struct {
	d         *Dispatcher
	calls     chan func()
	stop      chan struct{}
	done      chan struct{}
	autoDrain bool
}

func startOwner(t *testing.T, d *Dispatcher, autoDrain bool) *ownerLoop {
	t.Helper()
	o := &ownerLoop{
		d:         d,
		calls:     make(chan func()),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		autoDrain: autoDrain,
	}
	ready := make(chan struct{})
	go func() {
		defer close(o.done)
		d.Bind()
		defer d.Unbind()
		close(ready)
		for {
			var wake <-chan struct{}
			if o.autoDrain {
				wake = d.Wake()
			}
			select {
			case fn := <-o.calls:
				fn()
			case <-wake:
				d.Drain()
			case <-o.stop:
				return
			}
		}
	}()
	<-ready
	t.Cleanup(func() {
		close(o.stop)
		<-o.done
	})
	return o
}

// run executes fn on the owner goroutine and waits for it.
func (o *ownerLoop) run(fn func()) {
	finished := make(chan struct{})
	o.calls <- func() {
		defer close(finished)
		fn()
	}
	<-finished
}

func TestSubmitOnOwnerRunsInline(t *testing.T) {
	d := New(quietLogger())
	o := startOwner(t, d, false)

	var ranBeforeReturn bool
	o.run(func() {
		ran := false
		d.Submit(func() { ran = true })
		ranBeforeReturn = ran
	})
	if !ranBeforeReturn {
		t.Fatal("expected work submitted on the owner to run before Submit returned")
	}
}

func TestSubmitFromForeignThreadQueuesUntilDrain(t *testing.T) {
	d := New(quietLogger())
	o := startOwner(t, d, false)

	if d.OnOwnerThread() {
		t.Fatal("test goroutine must not be the owner")
	}

	ran := make(chan int64, 1)
	d.Submit(func() { ran <- currentThread() })

	if got := d.Pending(); got != 1 {
		t.Fatalf("Pending() = %d, want 1", got)
	}
	select {
	case <-ran:
		t.Fatal("work ran before the owner drained")
	default:
	}

	var drained int
	o.run(func() { drained = d.Drain() })
	if drained != 1 {
		t.Fatalf("Drain() = %d, want 1", drained)
	}
	if tid := <-ran; tid != d.Owner() {
		t.Fatalf("work ran on thread %d, owner is %d", tid, d.Owner())
	}
}

func TestSubmitWakesOwner(t *testing.T) {
	d := New(quietLogger())
	startOwner(t, d, true)

	ran := make(chan struct{})
	d.Submit(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("owner was not woken by foreign submission")
	}
}

func TestDrainPreservesSubmissionOrderPerThread(t *testing.T) {
	const submitters = 8
	const perSubmitter = 200

	d := New(quietLogger())
	o := startOwner(t, d, true)

	type tag struct{ submitter, seq int }
	var order []tag // appended only on the owner

	var wg sync.WaitGroup
	for s := 0; s < submitters; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			for i := 0; i < perSubmitter; i++ {
				tg := tag{submitter: s, seq: i}
				d.Submit(func() { order = append(order, tg) })
			}
		}(s)
	}
	wg.Wait()

	var got []tag
	o.run(func() {
		d.Drain()
		got = append(got, order...)
	})

	if len(got) != submitters*perSubmitter {
		t.Fatalf("executed %d units, want %d", len(got), submitters*perSubmitter)
	}
	next := make([]int, submitters)
	for _, tg := range got {
		if tg.seq != next[tg.submitter] {
			t.Fatalf("submitter %d: got seq %d, want %d", tg.submitter, tg.seq, next[tg.submitter])
		}
		next[tg.submitter]++
	}
}

func TestOwnerSubmitRunsAfterEarlierQueuedWork(t *testing.T) {
	d := New(quietLogger())
	o := startOwner(t, d, false)

	var order []string
	d.Submit(func() { order = append(order, "foreign") })

	o.run(func() {
		d.Submit(func() { order = append(order, "owner") })
	})

	var got []string
	o.run(func() { got = append(got, order...) })
	if len(got) != 2 || got[0] != "foreign" || got[1] != "owner" {
		t.Fatalf("order = %v, want [foreign owner]", got)
	}
}

func TestNestedSubmitDuringDrainRunsInline(t *testing.T) {
	d := New(quietLogger())
	o := startOwner(t, d, false)

	var order []string
	d.Submit(func() {
		order = append(order, "outer")
		d.Submit(func() { order = append(order, "inner") })
		order = append(order, "outer-done")
	})
	d.Submit(func() { order = append(order, "queued") })

	var got []string
	o.run(func() {
		d.Drain()
		got = append(got, order...)
	})
	want := []string{"outer", "inner", "outer-done", "queued"}
	if len(got) != len(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestPanickingWorkIsRecovered(t *testing.T) {
	d := New(quietLogger())
	o := startOwner(t, d, false)

	after := false
	d.Submit(func() { panic("boom") })
	d.Submit(func() { after = true })

	var ranAfter bool
	o.run(func() {
		d.Drain()
		ranAfter = after
	})
	if !ranAfter {
		t.Fatal("work after a panicking unit did not run")
	}
	if st := d.Stats(); st.Executed != 2 || st.Submitted != 2 {
		t.Fatalf("stats = %+v, want 2 submitted / 2 executed", st)
	}
}

func TestCloseDropsPendingAndLaterWork(t *testing.T) {
	d := New(quietLogger())
	o := startOwner(t, d, false)

	ran := false
	d.Submit(func() { ran = true })
	d.Close()
	d.Submit(func() { ran = true })

	var sawRun bool
	o.run(func() {
		d.Submit(func() { ran = true })
		d.Drain()
		sawRun = ran
	})
	if sawRun {
		t.Fatal("work ran after Close")
	}
	if st := d.Stats(); st.Dropped != 3 || st.Pending != 0 {
		t.Fatalf("stats = %+v, want 3 dropped and nothing pending", st)
	}
}

func TestDrainFromForeignThreadIsIgnored(t *testing.T) {
	d := New(quietLogger())
	startOwner(t, d, false)

	d.Submit(func() {})
	if n := d.Drain(); n != 0 {
		t.Fatalf("foreign Drain() = %d, want 0", n)
	}
	if d.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", d.Pending())
	}
}

func TestUnboundDispatcherQueuesEverything(t *testing.T) {
	d := New(quietLogger())
	if d.Bound() || d.OnOwnerThread() {
		t.Fatal("new dispatcher should be unbound")
	}
	d.Submit(func() {})
	d.Submit(nil)
	if d.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", d.Pending())
	}
}
