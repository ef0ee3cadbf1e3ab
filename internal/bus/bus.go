// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package bus defines the publish/subscribe surface vctl needs from the robotics
// middleware. Transport, topic discovery and serialization live in the
// implementations: rosbus talks to a ROS master, membus is an in-process bus used
// by tests and simulation.
package bus

import (
	"context"
	"errors"
	"sort"

	"github.com/matt-FFFFFF/vctl/internal/velocity"
)

// Message type names as registered with the middleware.
const (
	TypeTwist  = "geometry_msgs/Twist"
	TypeString = "std_msgs/String"
)

var (
	// ErrClosed is returned when using a transport or publisher after Close.
	ErrClosed = errors.New("bus: closed")
	// ErrTypeMismatch is returned when a topic is already registered with another message type.
	ErrTypeMismatch = errors.New("bus: topic registered with a different message type")
)

// VelocityPublisher publishes velocity commands on one topic.
// Publish is fire-and-forget: a nil error means the message was handed to the
// middleware, not that anyone received it.
type VelocityPublisher interface {
	Topic() string
	Publish(cmd velocity.Command) error
	Close() error
}

// StringPublisher publishes string messages on one topic.
type StringPublisher interface {
	Topic() string
	Publish(data string) error
	Close() error
}

// Subscription is an active subscriber callback.
type Subscription interface {
	Close() error
}

// TopicInfo is one entry of the middleware's topic registry.
type TopicInfo struct {
	Name        string
	Type        string
	Publishers  []string
	Subscribers []string
}

// Available reports whether the topic has at least one publisher or subscriber.
func (t TopicInfo) Available() bool {
	return len(t.Publishers) > 0 || len(t.Subscribers) > 0
}

// Transport is a connection to the middleware as one node.
type Transport interface {
	// NewVelocityPublisher advertises topic with the Twist message type.
	NewVelocityPublisher(topic string) (VelocityPublisher, error)
	// NewStringPublisher advertises topic with the String message type.
	NewStringPublisher(topic string) (StringPublisher, error)
	// SubscribeString invokes handler for every String message on topic.
	// Handlers may run on a middleware goroutine.
	SubscribeString(topic string, handler func(data string)) (Subscription, error)
	// Topics returns the registry of known topics.
	Topics(ctx context.Context) ([]TopicInfo, error)
	Close() error
}

// Lookup returns the entry for name.
func Lookup(topics []TopicInfo, name string) (TopicInfo, bool) {
	for _, t := range topics {
		if t.Name == name {
			return t, true
		}
	}

	return TopicInfo{}, false
}

// SortTopics orders topics by name and sorts their endpoint lists.
func SortTopics(topics []TopicInfo) {
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name < topics[j].Name })

	for i := range topics {
		sort.Strings(topics[i].Publishers)
		sort.Strings(topics[i].Subscribers)
	}
}
