package mailbox

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAuthError(t *testing.T) {
	err := fmt.Errorf("connecting: %w", &AuthError{Server: "imap:993", Message: "bad login"})
	assert.True(t, IsAuthError(err))
	assert.False(t, IsAuthError(errors.New("timeout")))
}

func TestIsPermanent(t *testing.T) {
	wrapped := fmt.Errorf("sending: %w", &SendError{Err: errors.New("550"), Permanent: true})
	assert.True(t, IsPermanent(wrapped))
	assert.False(t, IsPermanent(&SendError{Err: errors.New("421")}))
	assert.False(t, IsPermanent(errors.New("eof")))
	assert.False(t, IsPermanent(nil))
}
