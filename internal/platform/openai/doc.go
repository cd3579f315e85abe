// Package openai implements the provider transport against the OpenAI API,
// covering both conversational chat models and instruction-style completion
// models.
package openai
