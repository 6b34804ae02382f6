package mqtt

import "log"

// bufferedMsg is a serialized message held until the broker is reachable.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer keeps the newest capacity messages in arrival order.
// The caller must synchronize access.
type ringBuffer struct {
	buf     []bufferedMsg
	start   int // oldest message
	count   int
	dropped int // total messages overwritten since creation
	warned  bool
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{buf: make([]bufferedMsg, capacity)}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	capacity := len(r.buf)
	if r.count < capacity {
		r.buf[(r.start+r.count)%capacity] = msg
		r.count++
		return
	}

	if !r.warned {
		log.Printf("mqtt: offline buffer full (%d messages), dropping oldest", capacity)
		r.warned = true
	}
	r.buf[r.start] = msg
	r.start = (r.start + 1) % capacity
	r.dropped++
}

// drainAll empties the buffer and returns its messages, oldest first.
func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}

	out := make([]bufferedMsg, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(r.start+i)%len(r.buf)])
		r.buf[(r.start+i)%len(r.buf)] = bufferedMsg{}
	}
	r.start, r.count, r.warned = 0, 0, false
	return out
}

func (r *ringBuffer) len() int {
	return r.count
}
