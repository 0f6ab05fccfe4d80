// Package model defines the text-generation interface consumed by the
// synthesis layer, along with a mock implementation for tests. Provider
// adapters live in subpackages (anthropic, openai).
package model
