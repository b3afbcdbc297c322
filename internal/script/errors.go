package script

import (
	"fmt"

	"github.com/rocketship-ai/shortcuts/internal/script/runtime"
)

// ScriptError reports an exception thrown by a script. It ends that script
// only; the rest of the run decides what it means for the outcome.
type ScriptError struct {
	Phase   runtime.Phase
	Message string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s script failed: %s", e.Phase, e.Message)
}
