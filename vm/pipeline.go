package ivm

import (
	"sync"
	"sync/atomic"
)

/*
	Parallel output fan-out: the emulator enqueues finished frame
	records on waitQueue and takes reusable buffer sets back from
	freeQueue; N-1 worker goroutines block on waitQueue, write the
	files and return the set to freeQueue.

	requested is incremented by the emulator strictly after the
	corresponding enqueue; processed by the worker strictly after the
	write completes and before the set goes back on freeQueue, so
	processed <= requested always holds and waitIdle (or Close)
	returning means every enqueued frame is durably written.
*/

// linkedQueue is an unbounded FIFO guarded by a mutex with a condition
// variable for the blocking dequeue. Enqueue never blocks.
type linkedQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	first    *queueElem
	last     *queueElem
}

type queueElem struct {
	payload *FrameRecord
	next    *queueElem
}

func newLinkedQueue() *linkedQueue {
	q := &linkedQueue{}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

func (q *linkedQueue) enqueue(rec *FrameRecord) {
	elem := &queueElem{payload: rec}
	q.mu.Lock()
	if q.last == nil {
		q.first = elem
	} else {
		q.last.next = elem
	}
	q.last = elem
	q.notEmpty.Signal()
	q.mu.Unlock()
}

// dequeue pops the oldest element. With wait set it blocks until one
// arrives; otherwise an empty queue returns nil immediately.
func (q *linkedQueue) dequeue(wait bool) (*FrameRecord, bool) {
	q.mu.Lock()
	if wait {
		for q.first == nil {
			q.notEmpty.Wait()
		}
	} else if q.first == nil {
		q.mu.Unlock()
		return nil, false
	}
	elem := q.first
	q.first = elem.next
	if q.last == elem {
		q.last = nil
	}
	q.mu.Unlock()
	return elem.payload, true
}

// queueHandler owns the two linked queues and the progress counters.
type queueHandler struct {
	freeQueue *linkedQueue
	waitQueue *linkedQueue

	requested atomic.Int64
	processed atomic.Int64

	idleMu sync.Mutex
	idle   *sync.Cond
}

func newQueueHandler() *queueHandler {
	h := &queueHandler{
		freeQueue: newLinkedQueue(),
		waitQueue: newLinkedQueue(),
	}
	h.idle = sync.NewCond(&h.idleMu)
	return h
}

// getFree dequeues a reusable buffer set without blocking, or makes a
// new one.
func (h *queueHandler) getFree() *FrameRecord {
	if rec, ok := h.freeQueue.dequeue(false); ok && rec != nil {
		return rec
	}
	return &FrameRecord{
		Text:    make([]byte, 0, initialTextSize),
		Raw:     make([]byte, 0, initialBytesSize),
		Samples: make([]byte, 0, initialSamplesSize),
	}
}

// waitIdle blocks until every requested frame has been processed.
func (h *queueHandler) waitIdle() {
	h.idleMu.Lock()
	for h.processed.Load() < h.requested.Load() {
		h.idle.Wait()
	}
	h.idleMu.Unlock()
}

// OutputPipeline turns frame records into files, either inline or
// through the worker units.
type OutputPipeline struct {
	dir      string
	parallel bool

	counter uint32
	qh      *queueHandler

	// Serial console spill state: the frame whose text/bytes files
	// were already started, so further spills append.
	spilledSeq uint32
	spilled    bool

	errMu    sync.Mutex
	firstErr error
}

// NewOutputPipeline builds the pipeline. units counts the emulator
// too, so parallel mode starts units-1 workers.
func NewOutputPipeline(dir string, parallel bool, units int) (*OutputPipeline, error) {
	p := &OutputPipeline{dir: dir, parallel: parallel}
	if parallel {
		p.qh = newQueueHandler()
		for i := 0; i < units-1; i++ {
			go p.worker()
		}
	}
	return p, nil
}

// Parallel reports whether frames are handed to worker units.
func (p *OutputPipeline) Parallel() bool { return p.parallel }

// Requested and Processed expose the progress counters.
func (p *OutputPipeline) Requested() int64 {
	if p.qh == nil {
		return int64(p.counter)
	}
	return p.qh.requested.Load()
}

func (p *OutputPipeline) Processed() int64 {
	if p.qh == nil {
		return int64(p.counter)
	}
	return p.qh.processed.Load()
}

func (p *OutputPipeline) worker() {
	for {
		rec, _ := p.qh.waitQueue.dequeue(true)
		if rec == nil {
			// Shutdown sentinel; pass it along to the next worker.
			p.qh.waitQueue.enqueue(nil)
			return
		}
		if err := writeFrameFiles(p.dir, rec, false); err != nil {
			p.setErr(err)
		}
		p.qh.processed.Add(1)
		p.qh.idleMu.Lock()
		p.qh.idle.Broadcast()
		p.qh.idleMu.Unlock()
		rec.reset()
		p.qh.freeQueue.enqueue(rec)
	}
}

func (p *OutputPipeline) setErr(err error) {
	p.errMu.Lock()
	if p.firstErr == nil {
		p.firstErr = err
	}
	p.errMu.Unlock()
}

// Err returns the first write failure seen by any unit.
func (p *OutputPipeline) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.firstErr
}

// BeginFrame advances the frame counter and rearms the assembler with
// the new geometry.
func (p *OutputPipeline) BeginFrame(a *FrameAssembler, width, height uint16, rate uint32) {
	p.counter++
	a.begin(p.counter, width, height, rate)
}

// Flush hands the assembler's current frame off for writing: inline in
// serial mode, through the wait queue in parallel mode. The assembler
// comes back holding an empty buffer set either way.
func (p *OutputPipeline) Flush(a *FrameAssembler) error {
	if err := p.Err(); err != nil {
		return err
	}
	if !p.parallel {
		err := p.writeSerial(a)
		a.resetBuffers()
		return err
	}
	rec := a.detach(p.qh.getFree())
	p.qh.waitQueue.enqueue(rec)
	p.qh.requested.Add(1)
	return nil
}

// writeSerial writes the frame inline, folding in any console spill
// already performed for this frame.
func (p *OutputPipeline) writeSerial(a *FrameAssembler) error {
	if p.dir == "" {
		return nil
	}
	appendConsole := p.spilled && p.spilledSeq == a.seq
	return writeFrameFiles(p.dir, a.record(), appendConsole)
}

// MaybeSpill flushes an overflowing text or byte buffer to the current
// frame's files without advancing the frame counter. Parallel mode
// keeps accumulating instead; its buffers are swapped wholesale.
func (p *OutputPipeline) MaybeSpill(a *FrameAssembler) error {
	if p.parallel || (len(a.text) < initialTextSize && len(a.raw) < initialBytesSize) {
		return nil
	}
	if p.dir != "" {
		appendMode := p.spilled && p.spilledSeq == a.seq
		if err := writeConsoleFiles(p.dir, a.seq, a.text, a.raw, appendMode); err != nil {
			return err
		}
	}
	a.text = a.text[:0]
	a.raw = a.raw[:0]
	p.spilled = true
	p.spilledSeq = a.seq
	return nil
}

// Close waits until processed catches up with requested, then releases
// the free list and stops the workers. After Close every enqueued
// frame is on disk.
func (p *OutputPipeline) Close() error {
	if p.parallel {
		h := p.qh
		for h.processed.Load() < h.requested.Load() {
			h.freeQueue.dequeue(true)
		}
		for {
			if rec, ok := h.freeQueue.dequeue(false); !ok || rec == nil {
				break
			}
		}
		h.waitQueue.enqueue(nil) // one sentinel is passed along as workers exit
	}
	return p.Err()
}

// Drain blocks until all pending frame writes are done, keeping the
// workers and free list alive. READ_FRAME uses it so a rescan can see
// frames the program just wrote.
func (p *OutputPipeline) Drain() {
	if p.parallel {
		p.qh.waitIdle()
	}
}
