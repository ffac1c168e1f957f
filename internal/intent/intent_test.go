// ABOUTME: Tests for the intent classifier and its canned responses.
// ABOUTME: Category precedence, confidence scoring, available/missing partitioning, determinism.

package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_CalendarWithNothingAvailable(t *testing.T) {
	m := NewMatcher()

	match, ok := m.Detect("can you schedule a meeting for tomorrow", nil)
	require.True(t, ok)
	assert.Equal(t, "calendar", match.IntentType)
	assert.Empty(t, match.AvailableProviderClasses)
	assert.Equal(t, []string{"google_calendar", "outlook_calendar"}, match.MissingProviderClasses)
	assert.GreaterOrEqual(t, match.Confidence, 0.7)
}

func TestDetect_EmailPartitionsAvailability(t *testing.T) {
	m := NewMatcher()

	match, ok := m.Detect("send an email to alice about the launch", []string{"gmail", "filesystem"})
	require.True(t, ok)
	assert.Equal(t, "email", match.IntentType)
	assert.Equal(t, []string{"gmail"}, match.AvailableProviderClasses)
	assert.Equal(t, []string{"outlook"}, match.MissingProviderClasses)
}

func TestDetect_GoogleDriveIsFileOperationsNotWebSearch(t *testing.T) {
	m := NewMatcher()

	match, ok := m.Detect("list my google drive files", nil)
	require.True(t, ok)
	assert.Equal(t, "file_operations", match.IntentType)
}

func TestDetect_WebSearch(t *testing.T) {
	m := NewMatcher()

	match, ok := m.Detect("what's the latest news about the election", nil)
	require.True(t, ok)
	assert.Equal(t, "web_search", match.IntentType)
}

func TestDetect_NoMatch(t *testing.T) {
	m := NewMatcher()

	_, ok := m.Detect("hello there, how are you today", nil)
	assert.False(t, ok)
}

func TestDetect_Deterministic(t *testing.T) {
	m := NewMatcher()
	text := "check my inbox for messages from bob"

	first, ok1 := m.Detect(text, []string{"gmail"})
	second, ok2 := m.Detect(text, []string{"gmail"})
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, first, second)
}

func TestDetect_ActionVerbBoostsConfidence(t *testing.T) {
	m := NewMatcher()

	// "check" is an action verb; "reminder" alone is not.
	withVerb, ok := m.Detect("check my calendar", nil)
	require.True(t, ok)
	withoutVerb, ok2 := m.Detect("reminder", nil)
	require.True(t, ok2)

	assert.Greater(t, withVerb.Confidence, withoutVerb.Confidence)
}

func TestDetect_ConfidenceClamped(t *testing.T) {
	m := NewMatcher()

	match, ok := m.Detect("send an email and create a file and search everything", []string{"gmail"})
	require.True(t, ok)
	assert.LessOrEqual(t, match.Confidence, 1.0)
}

func TestRespond_SetupGuideWhenNothingAvailable(t *testing.T) {
	m := NewMatcher()
	match, ok := m.Detect("schedule a meeting with the team", nil)
	require.True(t, ok)

	reply := Respond(match)
	assert.Contains(t, reply, "Setup Required")
	assert.Contains(t, reply, "google_calendar")
}

func TestRespond_ConfirmationWhenAvailable(t *testing.T) {
	m := NewMatcher()
	match, ok := m.Detect("send an email to bob", []string{"gmail"})
	require.True(t, ok)

	reply := Respond(match)
	assert.Contains(t, reply, "Available")
	assert.Contains(t, reply, "gmail")
	assert.Contains(t, reply, "confirm")
}
