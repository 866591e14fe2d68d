// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model holds the plain records shared by every layer of taskgrid:
// schedulable items, dependency edges and the patches used to write a chosen
// placement back onto an item.
//
// # Core Concepts
//
//   - Item: a task or event. Fixed items carry an immutable start and duration;
//     flexible items may be placed anywhere inside the working window.
//
//   - Edge: an ordered (predecessor, successor) pair. The edge set must stay
//     acyclic; that invariant is enforced by the dag package, not here.
//
//   - ItemPatch: the minimal update the planner sends to the persistence
//     collaborator when a placement is committed or cleared.
//
// The model package never talks to storage and never validates graph shape.
// It is the snapshot format that the core components receive per call.
package model
