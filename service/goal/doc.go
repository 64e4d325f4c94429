// Package goal turns free-text operator goals into a structured intent.
//
// The parser is a deterministic keyword and pattern matcher: every input,
// including the empty string, yields a valid intent, and the same input
// always yields the same intent. A goal such as
//
//	Review last 3 chats and create a PR if any score is below 3
//
// produces ItemCount=3, NeedsEvaluation=true, NeedsChangeRequest=true and an
// "any" threshold of 3.
package goal
