// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

// descriptionPrefix namespaces the feature and group translation keys
// handed to the operator UI.
const descriptionPrefix = "srr_"

// Reference fleet agent names and queues.
const (
	alertAgent  = "etn-alert-agent"
	assetAgent  = "etn-asset-agent"
	configAgent = "etn-malamute-config"
	emc4jAgent  = "etn-emc4j"
	secwAgent   = "etn-security-wallet"
)

// Default returns the catalog of the reference fleet.
//
// The features network, automations and virtual-assets are declared
// but deliberately ungrouped: their agents answer save, but the
// snapshots are not yet stable enough to ship inside a group, so they
// stay out of the operator surface until they are.
func Default() *Catalog {
	seed := Seed{
		Agents: []AgentDescriptor{
			{Name: alertAgent, Queue: "ETN.Q.IPMCORE.ALERT"},
			{Name: assetAgent, Queue: "ETN.Q.IPMCORE.ASSET"},
			{Name: configAgent, Queue: "ETN.Q.IPMCORE.CONFIG"},
			{Name: emc4jAgent, Queue: "ETN.Q.IPMCORE.EMC4J"},
			{Name: secwAgent, Queue: "ETN.Q.IPMCORE.SECUWALLET"},
		},
		Features: []FeatureDescriptor{
			{ID: "alert-agent", Description: descriptionPrefix + "alert-agent", Agent: alertAgent, Restart: true},
			{ID: "asset-agent", Description: descriptionPrefix + "asset-agent", Agent: assetAgent, Restart: true},
			{ID: "automation-settings", Description: descriptionPrefix + "automation-settings", Agent: configAgent, Restart: true},
			{ID: "automations", Description: descriptionPrefix + "automations", Agent: emc4jAgent, Restart: true},
			{ID: "discovery", Description: descriptionPrefix + "discovery", Agent: configAgent, Restart: true},
			{ID: "mass-mgmt", Description: descriptionPrefix + "mass-mgmt", Agent: configAgent, Restart: true},
			{ID: "monitoring", Description: descriptionPrefix + "monitoring", Agent: configAgent, Restart: true},
			{ID: "network", Description: descriptionPrefix + "network", Agent: configAgent, Restart: true},
			{ID: "notification", Description: descriptionPrefix + "notification", Agent: configAgent, Restart: true},
			{ID: "security-wallet", Description: descriptionPrefix + "security-wallet", Agent: secwAgent, Restart: true},
			{ID: "user-session", Description: descriptionPrefix + "user-session", Agent: configAgent, Restart: true},
			{ID: "virtual-assets", Description: descriptionPrefix + "virtual-assets", Agent: emc4jAgent, Restart: true},
		},
		Groups: []GroupDescriptor{
			{
				ID:          "assets",
				Description: descriptionPrefix + "assets",
				Features: []FeaturePriority{
					{Feature: "asset-agent", Priority: 1},
				},
			},
			{
				ID:          "config",
				Description: descriptionPrefix + "config",
				Features: []FeaturePriority{
					{Feature: "automation-settings", Priority: 1},
					{Feature: "discovery", Priority: 2},
					{Feature: "mass-mgmt", Priority: 2},
					{Feature: "monitoring", Priority: 3},
					{Feature: "notification", Priority: 5},
					{Feature: "user-session", Priority: 6},
				},
			},
			{
				ID:          "security-wallet",
				Description: descriptionPrefix + "security-wallet",
				Features: []FeaturePriority{
					{Feature: "security-wallet", Priority: 1},
				},
			},
		},
	}

	c, err := New(seed)
	if err != nil {
		panic("catalog: reference seed is invalid: " + err.Error())
	}
	return c
}
