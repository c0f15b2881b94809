// Package events defines the normalized event contract between the inbound
// channels and the transcript.
//
// Three inbound shapes exist upstream: voice-channel payloads with loose
// role/source/type hints, structured client tool invocations, and UI-typed
// prompts. All of them normalize into zero or one Message per inbound
// payload, never more.
//
// Semantics used across the package:
//
//   - Role: who the content is attributed to (learner vs tutor).
//   - Channel: which source produced the content (voice vs text). Only voice
//     content is subject to refinement merging; text is exact as typed.
//   - Annotation: content authored by a tool invocation (a blackboard write)
//     rather than conversational turn-taking.
//
// Every event carries a timestamp fixed at construction so reconciliation
// decisions are pure over (event, state) and never depend on ambient clocks.
package events
