package auth

import "fmt"

// AuthChallengeError reports a Digest exchange that could not be completed:
// the server rejected the computed credentials or sent an unusable challenge
type AuthChallengeError struct {
	Realm  string
	Reason string
}

func (e *AuthChallengeError) Error() string {
	if e.Realm == "" {
		return fmt.Sprintf("digest authentication failed: %s", e.Reason)
	}
	return fmt.Sprintf("digest authentication failed for realm %q: %s", e.Realm, e.Reason)
}
