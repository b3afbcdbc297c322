package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rocketship-ai/shortcuts/internal/shortcut"
)

func TestDefaultStatusPolicy(t *testing.T) {
	tests := []struct {
		code            int
		followRedirects bool
		want            bool
	}{
		{200, true, true},
		{204, true, true},
		{299, true, true},
		{101, true, false},
		{302, true, false},
		{302, false, true},
		{304, false, true},
		{400, true, false},
		{401, false, false},
		{404, true, false},
		{500, true, false},
		{503, false, false},
		{999, true, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultStatusPolicy.IsSuccess(tt.code, tt.followRedirects), "status %d follow=%v", tt.code, tt.followRedirects)
	}
}

func TestCustomStatusPolicy(t *testing.T) {
	lenient := StatusPolicy{{Min: 200, Max: 499, Success: true}}
	assert.True(t, lenient.IsSuccess(404, true))
	assert.False(t, lenient.IsSuccess(500, true))
}

func TestEventShows(t *testing.T) {
	tests := []struct {
		mode    shortcut.FeedbackMode
		success bool
		failure bool
	}{
		{shortcut.FeedbackNone, false, false},
		{shortcut.FeedbackErrorsOnly, false, true},
		{shortcut.FeedbackSimpleResponseErrors, false, true},
		{shortcut.FeedbackSimpleResponse, true, true},
		{shortcut.FeedbackFullResponse, true, true},
		{shortcut.FeedbackDialog, true, true},
		{shortcut.FeedbackActivity, true, true},
		{shortcut.FeedbackDebug, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			ok := Success(nil)
			ok.Mode = tt.mode
			fail := Failure(ErrorTransport, "down")
			fail.Mode = tt.mode
			aborted := Aborted()
			aborted.Mode = tt.mode

			assert.Equal(t, tt.success, ok.Shows())
			assert.Equal(t, tt.failure, fail.Shows())
			assert.False(t, aborted.Shows())
		})
	}
}

func TestDetailFor(t *testing.T) {
	assert.Equal(t, DetailNone, DetailFor(shortcut.FeedbackNone))
	assert.Equal(t, DetailSummary, DetailFor(shortcut.FeedbackSimpleResponse))
	assert.Equal(t, DetailFull, DetailFor(shortcut.FeedbackFullResponse))
	assert.Equal(t, DetailDebug, DetailFor(shortcut.FeedbackDebug))
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "failure(transport): down", Failure(ErrorTransport, "down").String())
	assert.Equal(t, "success: 201", Success(&ResponseSummary{StatusCode: 201}).String())
	assert.Equal(t, "aborted", Aborted().String())
	assert.Equal(t, "unexpected response status 404 Not Found", (&HttpStatusError{StatusCode: 404, Status: "404 Not Found"}).Error())
}
