// Package gemini implements the generation.Generator interface using
// Google's Gemini API. It builds a literacy-coach prompt from the
// student's profile, baseline vocabulary, and scrubbed writing sample,
// requests a JSON response, and parses it into domain recommendations.
//
// The generator performs a single API call per invocation; retry and
// backoff are the caller's responsibility.
package gemini
