package statusbar

import (
	"bufio"
	"bytes"
	"io"
	"sync"
)

const maxProducerLine = 4 << 20

// lineReader reads lines from a child's pipe on its own goroutine so the
// read loop can poll them with a timeout.
type lineReader struct {
	lines chan string
	done  chan struct{}
	quit  chan struct{}
	once  sync.Once
	err   error
}

func newLineReader(r io.Reader) *lineReader {
	lr := &lineReader{
		lines: make(chan string, 16),
		done:  make(chan struct{}),
		quit:  make(chan struct{}),
	}
	go lr.run(r)
	return lr
}

func (lr *lineReader) run(r io.Reader) {
	defer close(lr.done)
	defer close(lr.lines)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxProducerLine)
	for scanner.Scan() {
		select {
		case lr.lines <- scanner.Text():
		case <-lr.quit:
			// keep draining so the child never blocks on a full pipe
		}
	}
	lr.err = scanner.Err()
}

// stop makes the reader discard the remaining input
func (lr *lineReader) stop() {
	lr.once.Do(func() { close(lr.quit) })
}

// Err returns the read error, if any, once the reader is done
func (lr *lineReader) Err() error {
	<-lr.done
	return lr.err
}

// lockedBuffer collects a child's stderr
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(bytes.TrimSpace(b.buf.Bytes()))
}
