// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog is the static registry of the fleet: which features
// exist, which agent owns each one, how features bundle into groups,
// and which bus queue reaches each agent.
//
// A Catalog is built once from a Seed — the compiled-in reference
// fleet or a JSONC catalog file — and is immutable afterwards, so it
// may be read concurrently without synchronization. The catalog is
// the single source of truth for feature→agent routing; agents are
// never inferred from payload contents.
package catalog

import (
	"fmt"
)

// FeatureDescriptor describes one configurable feature.
type FeatureDescriptor struct {
	// ID is the feature name; features are identified by name.
	ID string `json:"id"`

	// Description is a translation key for the operator UI.
	Description string `json:"description"`

	// Agent names the service owning save/restore/reset for this
	// feature.
	Agent string `json:"agent"`

	// Restart is set when successfully restoring or rolling back the
	// feature requires a host restart.
	Restart bool `json:"restart"`

	// Reset is set when the feature supports an explicit reset before
	// restore. Not every agent implements reset yet.
	Reset bool `json:"reset"`
}

// FeaturePriority binds a feature to its priority inside a group.
// Higher priority sorts first; ties keep registration order.
type FeaturePriority struct {
	Feature  string `json:"feature"`
	Priority uint   `json:"priority"`
}

// GroupDescriptor describes one group: an ordered bundle of features
// sharing a lifecycle from the operator's point of view.
type GroupDescriptor struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	Features    []FeaturePriority `json:"features"`
}

// AgentDescriptor binds an agent name to the bus queue it listens on.
type AgentDescriptor struct {
	Name  string `json:"name"`
	Queue string `json:"queue"`
}

// Seed is the raw catalog definition a Catalog is built from.
type Seed struct {
	Features []FeatureDescriptor `json:"features"`
	Groups   []GroupDescriptor   `json:"groups"`
	Agents   []AgentDescriptor   `json:"agents"`
}

// Catalog is the immutable fleet registry.
type Catalog struct {
	features     map[string]FeatureDescriptor
	groups       map[string]GroupDescriptor
	groupOrder   []string
	featureGroup map[string]string
	priority     map[string]uint
	queues       map[string]string
}

// New validates seed and builds a Catalog. Validation enforces:
// feature ids, group ids and agent names are unique and non-empty;
// every feature's agent has a queue; every feature referenced by a
// group exists; a feature belongs to at most one group.
func New(seed Seed) (*Catalog, error) {
	c := &Catalog{
		features:     make(map[string]FeatureDescriptor, len(seed.Features)),
		groups:       make(map[string]GroupDescriptor, len(seed.Groups)),
		featureGroup: make(map[string]string),
		priority:     make(map[string]uint),
		queues:       make(map[string]string, len(seed.Agents)),
	}

	for _, agent := range seed.Agents {
		if agent.Name == "" || agent.Queue == "" {
			return nil, fmt.Errorf("agent entry %+v: name and queue must not be empty", agent)
		}
		if _, exists := c.queues[agent.Name]; exists {
			return nil, fmt.Errorf("duplicate agent %q", agent.Name)
		}
		c.queues[agent.Name] = agent.Queue
	}

	for _, feature := range seed.Features {
		if feature.ID == "" {
			return nil, fmt.Errorf("feature with empty id")
		}
		if _, exists := c.features[feature.ID]; exists {
			return nil, fmt.Errorf("duplicate feature %q", feature.ID)
		}
		if _, ok := c.queues[feature.Agent]; !ok {
			return nil, fmt.Errorf("feature %q: agent %q has no queue", feature.ID, feature.Agent)
		}
		c.features[feature.ID] = feature
	}

	for _, group := range seed.Groups {
		if group.ID == "" {
			return nil, fmt.Errorf("group with empty id")
		}
		if _, exists := c.groups[group.ID]; exists {
			return nil, fmt.Errorf("duplicate group %q", group.ID)
		}
		for _, fp := range group.Features {
			if _, ok := c.features[fp.Feature]; !ok {
				return nil, fmt.Errorf("group %q references unknown feature %q", group.ID, fp.Feature)
			}
			if owner, taken := c.featureGroup[fp.Feature]; taken {
				return nil, fmt.Errorf("feature %q belongs to both %q and %q", fp.Feature, owner, group.ID)
			}
			c.featureGroup[fp.Feature] = group.ID
			c.priority[fp.Feature] = fp.Priority
		}
		c.groups[group.ID] = group
		c.groupOrder = append(c.groupOrder, group.ID)
	}

	return c, nil
}

// Feature looks up a feature descriptor by name.
func (c *Catalog) Feature(name string) (FeatureDescriptor, bool) {
	feature, ok := c.features[name]
	return feature, ok
}

// Group looks up a group descriptor by name.
func (c *Catalog) Group(name string) (GroupDescriptor, bool) {
	group, ok := c.groups[name]
	return group, ok
}

// GroupOfFeature returns the id of the group containing the feature,
// or "" when the feature is not grouped.
func (c *Catalog) GroupOfFeature(name string) string {
	return c.featureGroup[name]
}

// PriorityOf returns the feature's priority inside its group, or 0
// when the feature is unknown or ungrouped.
func (c *Catalog) PriorityOf(name string) uint {
	return c.priority[name]
}

// Groups returns every group descriptor in registration order.
func (c *Catalog) Groups() []GroupDescriptor {
	out := make([]GroupDescriptor, 0, len(c.groupOrder))
	for _, id := range c.groupOrder {
		out = append(out, c.groups[id])
	}
	return out
}

// Queue returns the bus queue for an agent.
func (c *Catalog) Queue(agent string) (string, bool) {
	queue, ok := c.queues[agent]
	return queue, ok
}
