// Package plugin loads paste patterns defined in Lua scripts.
//
// A pattern script evaluates to a table describing one pattern:
//
//	return {
//		name = "ticket",
//		kind = "link",
//		priority = 30,
//		match = function(text)
//			local id = string.match(text, "^JIRA%-(%d+)$")
//			if id == nil then return nil end
//			return { text = text, groups = { text, id } }
//		end,
//		produce = function(text, match)
//			return { link = "https://tracker.example/" .. match.groups[2] }
//		end,
//	}
//
// match returns nil (or false) to decline, true to accept the whole text,
// a string with the matched portion, or a table with text and groups
// fields. produce is optional; without it the payload is the matched text.
// Returning nil from produce declines the match after all, letting lower
// priority patterns run.
//
// All patterns loaded by one Loader share a single sandboxed Lua state.
// Scripts run with only the base, string, table and math libraries; there
// is no io, os or module loading. Calls into Lua are serialized, so a slow
// script stalls only paste classification, never block mutations.
package plugin
