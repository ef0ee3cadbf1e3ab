// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package rosbus implements bus.Transport on a ROS 1 master using goroslib.
package rosbus

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/bluenviron/goroslib/v2"
	"github.com/bluenviron/goroslib/v2/pkg/msgs/geometry_msgs"
	"github.com/bluenviron/goroslib/v2/pkg/msgs/std_msgs"
	"github.com/matt-FFFFFF/vctl/internal/bus"
	"github.com/matt-FFFFFF/vctl/internal/velocity"
)

// DefaultMasterAddress is used when neither a flag nor ROS_MASTER_URI name a master.
const DefaultMasterAddress = "127.0.0.1:11311"

var (
	// ErrConnect is returned when the node cannot register with the master.
	ErrConnect = errors.New("rosbus: failed to connect to ROS master")
	// ErrAdvertise is returned when a publisher or subscriber cannot be created.
	ErrAdvertise = errors.New("rosbus: failed to register topic")
	// ErrInvalidMasterURI is returned by MasterAddressFromURI for unparsable values.
	ErrInvalidMasterURI = errors.New("rosbus: invalid master URI")
)

// Config configures the node.
type Config struct {
	NodeName      string
	MasterAddress string
}

var _ bus.Transport = (*Transport)(nil)

// Transport is a ROS node.
type Transport struct {
	node   *goroslib.Node
	mu     sync.Mutex
	closed bool
	owned  []interface{ Close() error }
}

// New registers a node with the master.
func New(cfg Config) (*Transport, error) {
	if cfg.MasterAddress == "" {
		cfg.MasterAddress = DefaultMasterAddress
	}

	n, err := goroslib.NewNode(goroslib.NodeConf{
		Name:          strings.TrimPrefix(cfg.NodeName, "/"),
		MasterAddress: cfg.MasterAddress,
	})
	if err != nil {
		return nil, errors.Join(ErrConnect, fmt.Errorf("master %s: %w", cfg.MasterAddress, err))
	}

	return &Transport{node: n}, nil
}

func (t *Transport) track(c interface{ Close() error }) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		_ = c.Close()
		return bus.ErrClosed
	}

	t.owned = append(t.owned, c)

	return nil
}

// NewVelocityPublisher implements bus.Transport.
func (t *Transport) NewVelocityPublisher(topic string) (bus.VelocityPublisher, error) {
	p, err := goroslib.NewPublisher(goroslib.PublisherConf{
		Node:  t.node,
		Topic: topic,
		Msg:   &geometry_msgs.Twist{},
	})
	if err != nil {
		return nil, errors.Join(ErrAdvertise, fmt.Errorf("%s: %w", topic, err))
	}

	vp := &twistPublisher{topic: topic, pub: p}

	return vp, t.track(vp)
}

// NewStringPublisher implements bus.Transport.
func (t *Transport) NewStringPublisher(topic string) (bus.StringPublisher, error) {
	p, err := goroslib.NewPublisher(goroslib.PublisherConf{
		Node:  t.node,
		Topic: topic,
		Msg:   &std_msgs.String{},
	})
	if err != nil {
		return nil, errors.Join(ErrAdvertise, fmt.Errorf("%s: %w", topic, err))
	}

	sp := &stringPublisher{topic: topic, pub: p}

	return sp, t.track(sp)
}

// SubscribeString implements bus.Transport. The handler runs on goroslib's
// subscriber goroutine.
func (t *Transport) SubscribeString(topic string, handler func(string)) (bus.Subscription, error) {
	s, err := goroslib.NewSubscriber(goroslib.SubscriberConf{
		Node:  t.node,
		Topic: topic,
		Callback: func(msg *std_msgs.String) {
			handler(msg.Data)
		},
	})
	if err != nil {
		return nil, errors.Join(ErrAdvertise, fmt.Errorf("%s: %w", topic, err))
	}

	sub := &subscription{sub: s}

	return sub, t.track(sub)
}

// Topics implements bus.Transport by querying the master.
func (t *Transport) Topics(ctx context.Context) ([]bus.TopicInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := t.node.MasterGetTopics()
	if err != nil {
		return nil, fmt.Errorf("rosbus: listing topics: %w", err)
	}

	out := make([]bus.TopicInfo, 0, len(res))

	for name, info := range res {
		ti := bus.TopicInfo{Name: name, Type: info.Type}

		for node := range info.Publishers {
			ti.Publishers = append(ti.Publishers, node)
		}

		for node := range info.Subscribers {
			ti.Subscribers = append(ti.Subscribers, node)
		}

		out = append(out, ti)
	}

	bus.SortTopics(out)

	return out, nil
}

// Close closes every endpoint and unregisters the node.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}

	t.closed = true
	owned := t.owned
	t.owned = nil
	t.mu.Unlock()

	var err error
	for i := len(owned) - 1; i >= 0; i-- {
		err = errors.Join(err, owned[i].Close())
	}

	t.node.Close()

	return err
}

// TwistFromCommand maps a velocity command on to a Twist message.
func TwistFromCommand(c velocity.Command) *geometry_msgs.Twist {
	return &geometry_msgs.Twist{
		Linear:  geometry_msgs.Vector3{X: c.Linear},
		Angular: geometry_msgs.Vector3{Z: c.Angular},
	}
}

// CommandFromTwist is the inverse of TwistFromCommand. Components other than
// linear.x and angular.z are dropped.
func CommandFromTwist(m *geometry_msgs.Twist) velocity.Command {
	return velocity.Command{Linear: m.Linear.X, Angular: m.Angular.Z}
}

// MasterAddressFromURI converts a ROS_MASTER_URI value such as
// "http://localhost:11311/" into the host:port form goroslib expects.
// An empty uri yields DefaultMasterAddress.
func MasterAddressFromURI(uri string) (string, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return DefaultMasterAddress, nil
	}

	if !strings.Contains(uri, "://") {
		return uri, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return "", errors.Join(ErrInvalidMasterURI, err)
	}

	if u.Host == "" {
		return "", fmt.Errorf("%w: %q has no host", ErrInvalidMasterURI, uri)
	}

	if u.Port() == "" {
		return u.Hostname() + ":11311", nil
	}

	return u.Host, nil
}

type twistPublisher struct {
	topic string
	pub   *goroslib.Publisher
	once  sync.Once
	mu    sync.Mutex
	done  bool
}

func (p *twistPublisher) Topic() string { return p.topic }

// Publish hands the message to goroslib, which writes it to every connected
// subscriber without acknowledgement.
func (p *twistPublisher) Publish(c velocity.Command) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done {
		return bus.ErrClosed
	}

	p.pub.Write(TwistFromCommand(c))

	return nil
}

func (p *twistPublisher) Close() error {
	p.once.Do(func() {
		p.mu.Lock()
		p.done = true
		p.mu.Unlock()
		p.pub.Close()
	})

	return nil
}

type stringPublisher struct {
	topic string
	pub   *goroslib.Publisher
	once  sync.Once
	mu    sync.Mutex
	done  bool
}

func (p *stringPublisher) Topic() string { return p.topic }

func (p *stringPublisher) Publish(data string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done {
		return bus.ErrClosed
	}

	p.pub.Write(&std_msgs.String{Data: data})

	return nil
}

func (p *stringPublisher) Close() error {
	p.once.Do(func() {
		p.mu.Lock()
		p.done = true
		p.mu.Unlock()
		p.pub.Close()
	})

	return nil
}

type subscription struct {
	sub  *goroslib.Subscriber
	once sync.Once
}

func (s *subscription) Close() error {
	s.once.Do(func() { s.sub.Close() })
	return nil
}
