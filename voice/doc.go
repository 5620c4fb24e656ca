// Package voice turns spoken questions into hospital searches.
//
// The Assistant transcribes audio with an ai.Transcriber, runs the transcript
// through a search.Searcher with the caller's facet selections, and optionally
// narrates "I found N results for your query." through an ai.Synthesizer.
package voice
