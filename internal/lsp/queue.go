package lsp

import "sync"

// messageQueue is an unbounded FIFO between a stream reader and the
// routing loop. Push never blocks; Out closes after Close once drained,
// or as soon as done closes.
type messageQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  [][]byte
	closed bool
	err    error
	out    chan []byte
	done   <-chan struct{}
}

func newMessageQueue(done <-chan struct{}) *messageQueue {
	q := &messageQueue{out: make(chan []byte), done: done}
	q.cond = sync.NewCond(&q.mu)
	go q.pump()
	go func() {
		<-done
		q.Close()
	}()
	return q
}

func (q *messageQueue) Push(payload []byte) {
	q.mu.Lock()
	if !q.closed {
		q.items = append(q.items, payload)
		q.cond.Signal()
	}
	q.mu.Unlock()
}

func (q *messageQueue) Close() {
	q.CloseWithError(nil)
}

// CloseWithError closes the queue and records why its producer stopped.
// Only the first reason is kept.
func (q *messageQueue) CloseWithError(err error) {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.err = err
	}
	q.cond.Signal()
	q.mu.Unlock()
}

// Err returns the reason given to CloseWithError. Nil means a clean end of
// stream.
func (q *messageQueue) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

func (q *messageQueue) Out() <-chan []byte {
	return q.out
}

func (q *messageQueue) pump() {
	defer close(q.out)
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.items) == 0 {
			q.mu.Unlock()
			return
		}
		next := q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]
		q.mu.Unlock()

		select {
		case q.out <- next:
		case <-q.done:
			return
		}
	}
}
