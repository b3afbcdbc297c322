package script

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketship-ai/shortcuts/internal/script/runtime"
)

// recordingHost keeps variables in memory and records UI calls
type recordingHost struct {
	mu        sync.Mutex
	vars      map[string]string
	toasts    []string
	dialogs   [][2]string
	triggered []string
	renamed   [][2]string
	clipboard string
	waited    []time.Duration
	prompt    string
	confirm   bool
}

func newRecordingHost() *recordingHost {
	return &recordingHost{vars: map[string]string{"existing": "value"}}
}

func (h *recordingHost) ShowToast(_ context.Context, m string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.toasts = append(h.toasts, m)
}

func (h *recordingHost) ShowDialog(_ context.Context, title, m string) {
	h.dialogs = append(h.dialogs, [2]string{title, m})
}

func (h *recordingHost) Prompt(context.Context, string, string) string { return h.prompt }
func (h *recordingHost) Confirm(context.Context, string) bool         { return h.confirm }
func (h *recordingHost) Speak(context.Context, string)                {}
func (h *recordingHost) Vibrate(context.Context)                      {}

func (h *recordingHost) Wait(ctx context.Context, d time.Duration) {
	h.waited = append(h.waited, d)
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func (h *recordingHost) GetVariable(_ context.Context, id string) string { return h.vars[id] }

func (h *recordingHost) SetVariable(_ context.Context, id, v string) {
	if _, ok := h.vars[id]; ok || id == "v" {
		h.vars[id] = v
	}
}

func (h *recordingHost) TriggerShortcut(_ context.Context, id string) {
	h.triggered = append(h.triggered, id)
}

func (h *recordingHost) RenameShortcut(_ context.Context, id, name string) {
	h.renamed = append(h.renamed, [2]string{id, name})
}

func (h *recordingHost) ChangeIcon(context.Context, string, string) {}

func (h *recordingHost) CopyToClipboard(_ context.Context, text string) { h.clipboard = text }

func (h *recordingHost) WifiIPAddress(context.Context) string { return "" }

func prepareContext() *runtime.Context {
	return runtime.NewContext(runtime.PhasePrepare, runtime.ShortcutInfo{ID: "sc-1", Name: "Test", Description: "desc"}, nil)
}

func TestExecute_EmptyScript(t *testing.T) {
	err := NewJavaScriptExecutor().Execute(context.Background(), "  \n", prepareContext(), newRecordingHost())
	assert.NoError(t, err)
}

func TestExecute_HostFunctions(t *testing.T) {
	host := newRecordingHost()
	host.prompt = "typed"
	host.confirm = true

	code := `
		showToast("hello " + shortcut.name);
		showDialog("message", "title");
		setVariable("existing", prompt("name?") + "-" + confirm("sure?"));
		setVariable("v", {a: 1});
		triggerShortcut("other");
		renameShortcut("", "Renamed");
		copyToClipboard(getVariable("existing"));
		if (getWifiIPAddress() !== "") { throw new Error("expected empty address"); }
		if (HOST_API_VERSION !== 1) { throw new Error("version"); }
		console.log("done", 1, {x: true});
	`
	err := NewJavaScriptExecutor().Execute(context.Background(), code, prepareContext(), host)
	require.NoError(t, err)

	assert.Equal(t, []string{"hello Test"}, host.toasts)
	assert.Equal(t, [][2]string{{"title", "message"}}, host.dialogs)
	assert.Equal(t, "typed-true", host.vars["existing"])
	assert.Equal(t, `{"a":1}`, host.vars["v"])
	assert.Equal(t, []string{"other"}, host.triggered)
	assert.Equal(t, [][2]string{{"", "Renamed"}}, host.renamed)
	assert.Equal(t, "typed-true", host.clipboard)
}

func TestExecute_UnknownVariables(t *testing.T) {
	host := newRecordingHost()
	code := `
		if (getVariable("missing") !== "") { throw new Error("expected empty"); }
		setVariable("missing", "x");
	`
	require.NoError(t, NewJavaScriptExecutor().Execute(context.Background(), code, prepareContext(), host))
	_, ok := host.vars["missing"]
	assert.False(t, ok)
}

func TestExecute_ScopePerPhase(t *testing.T) {
	exec := NewJavaScriptExecutor()
	host := newRecordingHost()

	// onPrepare sees neither response nor networkError
	err := exec.Execute(context.Background(),
		`if (typeof response !== "undefined" || typeof networkError !== "undefined") { throw new Error("leak"); }`,
		prepareContext(), host)
	require.NoError(t, err)

	success := runtime.NewContext(runtime.PhaseSuccess, runtime.ShortcutInfo{ID: "sc-1"}, nil).WithResponse(&runtime.ResponseInfo{
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": {"application/json"}},
		Body:       `{"ok":true}`,
		Cookies:    map[string]string{"session": "abc"},
	})
	err = exec.Execute(context.Background(), `
		setVariable("v", response.statusCode);
		if (JSON.parse(response.body).ok !== true) throw new Error("body");
		if (response.getHeader("content-type") !== "application/json") throw new Error("header");
		if (response.headers["Content-Type"] !== "application/json") throw new Error("headers");
		if (response.cookies.session !== "abc" || response.getCookie("session") !== "abc") throw new Error("cookies");
		if (typeof networkError !== "undefined") throw new Error("networkError bound");
	`, success, host)
	require.NoError(t, err)
	assert.Equal(t, "200", host.vars["v"])

	failure := runtime.NewContext(runtime.PhaseFailure, runtime.ShortcutInfo{ID: "sc-1"}, nil).WithNetworkError("connection refused")
	err = exec.Execute(context.Background(), `
		if (typeof response !== "undefined") throw new Error("response bound");
		setVariable("v", networkError);
	`, failure, host)
	require.NoError(t, err)
	assert.Equal(t, "connection refused", host.vars["v"])
}

func TestExecute_ThrownErrorIsScriptError(t *testing.T) {
	host := newRecordingHost()
	err := NewJavaScriptExecutor().Execute(context.Background(), `showToast("before"); throw new Error("kaput"); showToast("after");`, prepareContext(), host)

	var scriptErr *ScriptError
	require.ErrorAs(t, err, &scriptErr)
	assert.Equal(t, runtime.PhasePrepare, scriptErr.Phase)
	assert.Contains(t, scriptErr.Message, "kaput")
	assert.Equal(t, []string{"before"}, host.toasts)
}

func TestExecute_SyntaxErrorIsScriptError(t *testing.T) {
	err := NewJavaScriptExecutor().Execute(context.Background(), `showToast(`, prepareContext(), newRecordingHost())
	var scriptErr *ScriptError
	assert.ErrorAs(t, err, &scriptErr)
}

func TestExecute_AbortLetsScriptFinish(t *testing.T) {
	host := newRecordingHost()
	var aborted atomic.Bool
	rt := runtime.NewContext(runtime.PhasePrepare, runtime.ShortcutInfo{}, &aborted)

	err := NewJavaScriptExecutor().Execute(context.Background(), `abort(); showToast("still running");`, rt, host)
	require.NoError(t, err)
	assert.True(t, aborted.Load())
	assert.True(t, rt.Aborted())
	assert.Equal(t, []string{"still running"}, host.toasts)
}

func TestExecute_NoAmbientAccess(t *testing.T) {
	code := `
		if (typeof require !== "undefined") throw new Error("require");
		if (typeof process !== "undefined") throw new Error("process");
		if (typeof fetch !== "undefined") throw new Error("fetch");
	`
	assert.NoError(t, NewJavaScriptExecutor().Execute(context.Background(), code, prepareContext(), newRecordingHost()))
}

func TestExecute_WaitIsClamped(t *testing.T) {
	host := newRecordingHost()
	exec := NewJavaScriptExecutor(WithMaxWait(20 * time.Millisecond))
	require.NoError(t, exec.Execute(context.Background(), `wait(100000); wait(-5); wait(5);`, prepareContext(), host))
	assert.Equal(t, []time.Duration{20 * time.Millisecond, 0, 5 * time.Millisecond}, host.waited)
}

func TestExecute_CancellationInterrupts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := NewJavaScriptExecutor().Execute(ctx, `while (true) {}`, prepareContext(), newRecordingHost())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecute_FreshVMPerInvocation(t *testing.T) {
	exec := NewJavaScriptExecutor()
	host := newRecordingHost()
	require.NoError(t, exec.Execute(context.Background(), `var leaked = 1;`, prepareContext(), host))
	err := exec.Execute(context.Background(), `if (typeof leaked !== "undefined") throw new Error("leaked");`, prepareContext(), host)
	assert.NoError(t, err)
}

func TestValidateScript(t *testing.T) {
	exec := NewJavaScriptExecutor()
	assert.NoError(t, exec.ValidateScript(`showToast("x")`))
	assert.Error(t, exec.ValidateScript(`function (`))
}

type mockHost struct {
	mock.Mock
	*recordingHost
}

func (m *mockHost) Speak(ctx context.Context, text string) { m.Called(text) }
func (m *mockHost) Vibrate(ctx context.Context)            { m.Called() }

type wifiHost struct {
	*recordingHost
	ip string
}

func (h *wifiHost) WifiIPAddress(context.Context) string { return h.ip }

func TestExecute_WifiIPAddressIsAString(t *testing.T) {
	tests := []struct {
		name string
		ip   string
	}{
		{name: "no address", ip: ""},
		{name: "connected", ip: "192.168.1.20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := &wifiHost{recordingHost: newRecordingHost(), ip: tt.ip}
			code := `
				const ip = getWifiIPAddress();
				if (typeof ip !== "string") { throw new Error("got " + typeof ip); }
				setVariable("existing", "[" + ip + "]");
			`
			err := NewJavaScriptExecutor().Execute(context.Background(), code, prepareContext(), host)
			require.NoError(t, err)
			assert.Equal(t, "["+tt.ip+"]", host.vars["existing"])
		})
	}
}

func TestExecute_PlatformCallsReachHost(t *testing.T) {
	host := &mockHost{recordingHost: newRecordingHost()}
	host.On("Speak", "hello").Once()
	host.On("Vibrate").Once()

	err := NewJavaScriptExecutor().Execute(context.Background(), `speak("hello"); vibrate();`, prepareContext(), host)
	require.NoError(t, err)
	host.AssertExpectations(t)
}
