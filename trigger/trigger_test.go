package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventValidate(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{"pre-commit", Event{Type: PreCommit}, false},
		{"post-rewrite with details", Event{Type: PostRewrite, Branch: "main", HeadCommit: "abc"}, false},
		{"empty type", Event{}, true},
		{"unknown type", Event{Type: "pre-lunch"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestKnown(t *testing.T) {
	for _, name := range []string{
		"pre-commit", "post-commit", "pre-push", "post-merge", "post-checkout",
		"pre-receive", "post-receive", "pre-rebase", "post-rewrite",
	} {
		assert.True(t, Known(name), name)
	}
	assert.False(t, Known("post-lunch"))
	assert.False(t, Known(""))
}
