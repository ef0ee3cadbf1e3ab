// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package membus is an in-process implementation of bus.Transport.
//
// Messages are delivered synchronously on the publishing goroutine and every
// published message is recorded, which makes the bus usable as a test double
// and for the --sim mode.
package membus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/matt-FFFFFF/vctl/internal/bus"
	"github.com/matt-FFFFFF/vctl/internal/velocity"
)

// Bus is a set of topics shared by the nodes created from it.
type Bus struct {
	mu         sync.Mutex
	topics     map[string]*topic
	publishErr error
}

type topic struct {
	typ         string
	publishers  map[string]int
	subscribers map[int]*subscriber
	nextSubID   int
	log         []any
}

type subscriber struct {
	node    string
	handler func(any)
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{topics: make(map[string]*topic)}
}

// Node returns a transport that registers endpoints under name.
func (b *Bus) Node(name string) *Node {
	return &Node{bus: b, name: name}
}

// FailPublishes makes every following publish return err. A nil err restores delivery.
func (b *Bus) FailPublishes(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.publishErr = err
}

// Velocities returns every velocity command published on name, oldest first.
func (b *Bus) Velocities(name string) []velocity.Command {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[name]
	if !ok {
		return nil
	}

	out := make([]velocity.Command, 0, len(t.log))

	for _, m := range t.log {
		if c, ok := m.(velocity.Command); ok {
			out = append(out, c)
		}
	}

	return out
}

// Strings returns every string message published on name, oldest first.
func (b *Bus) Strings(name string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[name]
	if !ok {
		return nil
	}

	out := make([]string, 0, len(t.log))

	for _, m := range t.log {
		if s, ok := m.(string); ok {
			out = append(out, s)
		}
	}

	return out
}

func (b *Bus) topicLocked(name, typ string) (*topic, error) {
	t, ok := b.topics[name]
	if !ok {
		t = &topic{
			typ:         typ,
			publishers:  make(map[string]int),
			subscribers: make(map[int]*subscriber),
		}
		b.topics[name] = t

		return t, nil
	}

	if t.typ != typ {
		return nil, fmt.Errorf("%w: %s is %s, not %s", bus.ErrTypeMismatch, name, t.typ, typ)
	}

	return t, nil
}

func (b *Bus) advertise(node, name, typ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.topicLocked(name, typ)
	if err != nil {
		return err
	}

	t.publishers[node]++

	return nil
}

func (b *Bus) unadvertise(node, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[name]
	if !ok {
		return
	}

	t.publishers[node]--
	if t.publishers[node] <= 0 {
		delete(t.publishers, node)
	}
}

func (b *Bus) subscribe(node, name, typ string, handler func(any)) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.topicLocked(name, typ)
	if err != nil {
		return 0, err
	}

	id := t.nextSubID
	t.nextSubID++
	t.subscribers[id] = &subscriber{node: node, handler: handler}

	return id, nil
}

func (b *Bus) unsubscribe(name string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.topics[name]; ok {
		delete(t.subscribers, id)
	}
}

// publish records msg and hands it to every subscriber.
// Handlers run after the bus lock is released.
func (b *Bus) publish(name string, msg any) error {
	b.mu.Lock()

	if b.publishErr != nil {
		err := b.publishErr
		b.mu.Unlock()

		return err
	}

	t, ok := b.topics[name]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("membus: topic %s not advertised", name)
	}

	t.log = append(t.log, msg)

	handlers := make([]func(any), 0, len(t.subscribers))
	for _, s := range t.subscribers {
		handlers = append(handlers, s.handler)
	}

	b.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}

	return nil
}

func (b *Bus) snapshot() []bus.TopicInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]bus.TopicInfo, 0, len(b.topics))

	for name, t := range b.topics {
		info := bus.TopicInfo{Name: name, Type: t.typ}

		for node := range t.publishers {
			info.Publishers = append(info.Publishers, node)
		}

		seen := make(map[string]struct{})

		for _, s := range t.subscribers {
			if _, ok := seen[s.node]; ok {
				continue
			}

			seen[s.node] = struct{}{}
			info.Subscribers = append(info.Subscribers, s.node)
		}

		out = append(out, info)
	}

	bus.SortTopics(out)

	return out
}

var _ bus.Transport = (*Node)(nil)

// Node is one participant on a Bus.
type Node struct {
	bus    *Bus
	name   string
	mu     sync.Mutex
	closed bool
	owned  []interface{ Close() error }
}

// Name returns the node name.
func (n *Node) Name() string {
	return n.name
}

func (n *Node) track(c interface{ Close() error }) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		_ = c.Close()
		return bus.ErrClosed
	}

	n.owned = append(n.owned, c)

	return nil
}

func (n *Node) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.closed
}

// NewVelocityPublisher implements bus.Transport.
func (n *Node) NewVelocityPublisher(topic string) (bus.VelocityPublisher, error) {
	if n.isClosed() {
		return nil, bus.ErrClosed
	}

	if err := n.bus.advertise(n.name, topic, bus.TypeTwist); err != nil {
		return nil, err
	}

	p := &velocityPublisher{publisher{bus: n.bus, node: n.name, topic: topic}}

	return p, n.track(p)
}

// NewStringPublisher implements bus.Transport.
func (n *Node) NewStringPublisher(topic string) (bus.StringPublisher, error) {
	if n.isClosed() {
		return nil, bus.ErrClosed
	}

	if err := n.bus.advertise(n.name, topic, bus.TypeString); err != nil {
		return nil, err
	}

	p := &stringPublisher{publisher{bus: n.bus, node: n.name, topic: topic}}

	return p, n.track(p)
}

// SubscribeString implements bus.Transport.
func (n *Node) SubscribeString(topic string, handler func(string)) (bus.Subscription, error) {
	if n.isClosed() {
		return nil, bus.ErrClosed
	}

	return n.subscribe(topic, bus.TypeString, func(m any) {
		if s, ok := m.(string); ok {
			handler(s)
		}
	})
}

// SubscribeVelocity invokes handler for every velocity command on topic.
// The ROS transport has no equivalent; it is used by the simulated vehicle.
func (n *Node) SubscribeVelocity(topic string, handler func(velocity.Command)) (bus.Subscription, error) {
	if n.isClosed() {
		return nil, bus.ErrClosed
	}

	return n.subscribe(topic, bus.TypeTwist, func(m any) {
		if c, ok := m.(velocity.Command); ok {
			handler(c)
		}
	})
}

func (n *Node) subscribe(topic, typ string, handler func(any)) (bus.Subscription, error) {
	id, err := n.bus.subscribe(n.name, topic, typ, handler)
	if err != nil {
		return nil, err
	}

	s := &subscription{bus: n.bus, topic: topic, id: id}

	return s, n.track(s)
}

// Topics implements bus.Transport.
func (n *Node) Topics(ctx context.Context) ([]bus.TopicInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if n.isClosed() {
		return nil, bus.ErrClosed
	}

	return n.bus.snapshot(), nil
}

// Close releases every endpoint the node created.
func (n *Node) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}

	n.closed = true
	owned := n.owned
	n.owned = nil
	n.mu.Unlock()

	var err error
	for _, c := range owned {
		err = errors.Join(err, c.Close())
	}

	return err
}

type publisher struct {
	bus    *Bus
	node   string
	topic  string
	once   sync.Once
	mu     sync.Mutex
	closed bool
}

func (p *publisher) Topic() string {
	return p.topic
}

func (p *publisher) Close() error {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		p.bus.unadvertise(p.node, p.topic)
	})

	return nil
}

func (p *publisher) send(msg any) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()

	if closed {
		return bus.ErrClosed
	}

	return p.bus.publish(p.topic, msg)
}

type velocityPublisher struct{ publisher }

func (p *velocityPublisher) Publish(cmd velocity.Command) error {
	return p.send(cmd)
}

type stringPublisher struct{ publisher }

func (p *stringPublisher) Publish(data string) error {
	return p.send(data)
}

type subscription struct {
	bus   *Bus
	topic string
	id    int
	once  sync.Once
}

func (s *subscription) Close() error {
	s.once.Do(func() { s.bus.unsubscribe(s.topic, s.id) })
	return nil
}
