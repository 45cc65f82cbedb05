package workflow_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

type notes struct {
	Text string `json:"text"`
}

func (n notes) Validate() error {
	if n.Text == "" {
		return errors.New("text is required")
	}
	return nil
}

func TestPayloadAs(t *testing.T) {
	t.Parallel()

	t.Run("value", func(t *testing.T) {
		t.Parallel()
		v, err := workflow.PayloadAs[notes]("ev", notes{Text: "a"})
		require.NoError(t, err)
		assert.Equal(t, "a", v.Text)
	})

	t.Run("pointer", func(t *testing.T) {
		t.Parallel()
		v, err := workflow.PayloadAs[notes]("ev", &notes{Text: "b"})
		require.NoError(t, err)
		assert.Equal(t, "b", v.Text)
	})

	t.Run("nil runs validation on zero value", func(t *testing.T) {
		t.Parallel()
		_, err := workflow.PayloadAs[notes]("ev", nil)
		assert.True(t, workflow.IsInvalidPayload(err))
	})

	t.Run("wrong type", func(t *testing.T) {
		t.Parallel()
		_, err := workflow.PayloadAs[notes]("ev", map[string]any{"text": "x"})
		require.Error(t, err)
		assert.True(t, workflow.IsInvalidPayload(err))
		assert.Contains(t, err.Error(), "map[string]interface {}")
	})
}

func TestNoPayload(t *testing.T) {
	t.Parallel()
	assert.NoError(t, workflow.NoPayload("ev", nil))
	assert.NoError(t, workflow.NoPayload("ev", json.RawMessage(" null ")))
	assert.True(t, workflow.IsInvalidPayload(workflow.NoPayload("ev", notes{})))
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	v, err := workflow.DecodeJSON[notes]("ev", json.RawMessage(`{"text":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, "hi", v.Text)

	v, err = workflow.DecodeJSON[notes]("ev", nil)
	require.NoError(t, err)
	assert.Empty(t, v.Text)

	_, err = workflow.DecodeJSON[notes]("ev", json.RawMessage(`{"text":"hi","extra":1}`))
	assert.True(t, workflow.IsInvalidPayload(err))

	_, err = workflow.DecodeJSON[notes]("ev", json.RawMessage(`{"text":"hi"} {"text":"again"}`))
	assert.True(t, workflow.IsInvalidPayload(err))

	_, err = workflow.DecodeNone("ev", json.RawMessage(`{"a":1}`))
	assert.True(t, workflow.IsInvalidPayload(err))
	_, err = workflow.DecodeNone("ev", json.RawMessage(`null`))
	assert.NoError(t, err)
}
