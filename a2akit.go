// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

// Package a2akit provides the data model and typed errors for the Agent-to-Agent
// (A2A) task execution core.
//
// The root package defines the protocol entities exchanged between agents and
// callers: tasks, messages, artifacts, streaming update events, and push
// notification configuration. The coordination engine that ties producers,
// queues, consumers, and storage together per task lives under the server
// packages.
package a2akit

// Version is the version of the A2A protocol dialect this module implements.
const Version = "0.2.0"
