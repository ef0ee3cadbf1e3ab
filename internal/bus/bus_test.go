// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicInfo_Available(t *testing.T) {
	assert.False(t, TopicInfo{Name: "/cmd_vel"}.Available())
	assert.True(t, TopicInfo{Name: "/cmd_vel", Publishers: []string{"/vehicle_controller"}}.Available())
	assert.True(t, TopicInfo{Name: "/stop_sign", Subscribers: []string{"/vehicle_controller"}}.Available())
}

func TestLookupAndSort(t *testing.T) {
	topics := []TopicInfo{
		{Name: "/stop_sign", Publishers: []string{"/z", "/a"}},
		{Name: "/cmd_vel"},
	}

	SortTopics(topics)
	assert.Equal(t, "/cmd_vel", topics[0].Name)
	assert.Equal(t, []string{"/a", "/z"}, topics[1].Publishers)

	got, ok := Lookup(topics, "/stop_sign")
	assert.True(t, ok)
	assert.Equal(t, "/stop_sign", got.Name)

	_, ok = Lookup(topics, "/odom")
	assert.False(t, ok)
}
