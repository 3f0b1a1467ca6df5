package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	lastRequest Request
	response    Response
	err         error
}

func (f *fakeProvider) Generate(_ context.Context, req Request) (Response, error) {
	f.lastRequest = req
	if f.err != nil {
		return Response{}, f.err
	}
	return f.response, nil
}

func TestInterpret_WrapsInputInReinterpretationPrompt(t *testing.T) {
	fake := &fakeProvider{response: Response{Text: "refined"}}

	out, err := Interpret(context.Background(), fake, "yeah sure", "")
	require.NoError(t, err)
	assert.Equal(t, "refined", out)
	assert.Contains(t, fake.lastRequest.Prompt, "yeah sure")
}

func TestInterpret_IncludesPromptContextWhenGiven(t *testing.T) {
	fake := &fakeProvider{response: Response{Text: "refined"}}

	_, err := Interpret(context.Background(), fake, "yes", "confirming deploy")
	require.NoError(t, err)
	assert.Contains(t, fake.lastRequest.Prompt, "confirming deploy")
}

func TestInterpret_NilProviderFails(t *testing.T) {
	_, err := Interpret(context.Background(), nil, "x", "")
	assert.Error(t, err)
}

func TestSummarize_DefaultsMaxLength(t *testing.T) {
	fake := &fakeProvider{response: Response{Text: "short"}}

	out, err := Summarize(context.Background(), fake, "a long text", 0)
	require.NoError(t, err)
	assert.Equal(t, "short", out)
	assert.Contains(t, fake.lastRequest.Prompt, "500")
}

func TestNew_UnknownProviderFails(t *testing.T) {
	_, err := New(Config{Provider: "bogus"})
	assert.Error(t, err)
}

func TestNew_CustomProviderRequiresBaseURL(t *testing.T) {
	_, err := New(Config{Provider: Custom})
	assert.Error(t, err)
}

func TestNew_ClaudeProviderConstructs(t *testing.T) {
	p, err := New(Config{Provider: Claude, APIKey: "test-key"})
	require.NoError(t, err)
	assert.NotNil(t, p)
}
