package broker

import (
	"sync/atomic"
	"time"
)

// Metrics counts pipeline activity on both sides of the topic.
type Metrics struct {
	published     uint64
	publishFailed uint64
	consumed      uint64
	skipped       uint64
	consumeErrors uint64
	startTime     time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) IncPublished() {
	atomic.AddUint64(&m.published, 1)
}

func (m *Metrics) IncPublishFailed() {
	atomic.AddUint64(&m.publishFailed, 1)
}

func (m *Metrics) IncConsumed() {
	atomic.AddUint64(&m.consumed, 1)
}

func (m *Metrics) IncSkipped() {
	atomic.AddUint64(&m.skipped, 1)
}

func (m *Metrics) IncConsumeErrors() {
	atomic.AddUint64(&m.consumeErrors, 1)
}

func (m *Metrics) Published() uint64 {
	return atomic.LoadUint64(&m.published)
}

func (m *Metrics) PublishFailed() uint64 {
	return atomic.LoadUint64(&m.publishFailed)
}

func (m *Metrics) Consumed() uint64 {
	return atomic.LoadUint64(&m.consumed)
}

func (m *Metrics) Skipped() uint64 {
	return atomic.LoadUint64(&m.skipped)
}

func (m *Metrics) ConsumeErrors() uint64 {
	return atomic.LoadUint64(&m.consumeErrors)
}

func (m *Metrics) StartTime() time.Time {
	return m.startTime
}
