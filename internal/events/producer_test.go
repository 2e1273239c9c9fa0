package events

import (
	"bytes"
	"context"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", Ordered, func() {
	Context("write", func() {
		It("writes succsessfully", func() {
			w := newTestWriter()
			kp := NewEventProducer(w)

			// add the first message
			msg := []byte("msg1")
			err := kp.Write(context.TODO(), JobMessageKind, bytes.NewReader(msg))
			Expect(err).To(BeNil())
			Eventually(func() int { return len(w.Events()) }).Should(Equal(1))
			Expect(w.Events()[0].Context.GetType()).To(Equal(JobMessageKind))
			Expect(w.Events()[0].Data()).To(Equal([]byte("msg1")))
			Expect(w.Events()[0].Source()).To(Equal(eventSource))
			Expect(w.Topics()[0]).To(Equal(defaultTopic))

			msg = []byte("msg2")
			err = kp.Write(context.TODO(), VMResultMessageKind, bytes.NewReader(msg))
			Expect(err).To(BeNil())

			Eventually(func() int { return len(w.Events()) }).Should(Equal(2))
			Expect(w.Events()[1].Context.GetType()).To(Equal(VMResultMessageKind))

			Expect(kp.Close()).To(BeNil())
		})

		It("writes to the configured topic", func() {
			w := newTestWriter()
			kp := NewEventProducer(w, WithOutputTopic("pve.backup.events.test"))

			err := kp.Write(context.TODO(), JobMessageKind, bytes.NewReader([]byte("msg1")))
			Expect(err).To(BeNil())

			Eventually(func() int { return len(w.Events()) }).Should(Equal(1))
			Expect(w.Topics()[0]).To(Equal("pve.backup.events.test"))

			Expect(kp.Close()).To(BeNil())
		})
	})
})

type testwriter struct {
	mu     sync.Mutex
	events []cloudevents.Event
	topics []string
}

func newTestWriter() *testwriter {
	return &testwriter{}
}

func (t *testwriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
	t.topics = append(t.topics, topic)
	return nil
}

func (t *testwriter) Close(_ context.Context) error {
	return nil
}

func (t *testwriter) Events() []cloudevents.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]cloudevents.Event, len(t.events))
	copy(out, t.events)
	return out
}

func (t *testwriter) Topics() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.topics))
	copy(out, t.topics)
	return out
}
