// Package domain contains the core business entities, value objects, and
// domain logic of the upload-analysis pipeline: uploads and their status
// lifecycle, student profiles, vocabulary recommendations, and the
// vocabulary-level computation. It is independent of any specific
// infrastructure or delivery mechanism.
package domain
