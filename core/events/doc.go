// Package events defines the typed events streamed to a client while a
// tutoring turn runs.
//
// Kinds:
//
//   - Message (message): assistant text. Segments (Delta set) are streamed
//     generator output, the non-delta message carries the complete text of
//     the node.
//   - ToolResult (tool_result): outcome of one tool invocation.
//   - DrawCommands (draw_commands): batch of canvas instructions produced by
//     the tools of one node.
//   - UnderstandingUpdate (understanding_update): new understanding level.
//   - Done (done): the turn completed and its state was persisted.
//   - Error (error): the turn failed; nothing was persisted.
//
// Within one node the order is always message, tool_result, draw_commands,
// understanding_update. Every stream ends with exactly one Done or Error.
package events
