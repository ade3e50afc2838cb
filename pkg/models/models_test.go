package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantType  string
		wantName  string
		wantCreds []CredentialRef
		wantModel interface{}
	}{
		{
			name: "openrouter node",
			input: `{
				"type": "@n8n/n8n-nodes-langchain.lmChatOpenRouter",
				"name": "OpenRouter Chat Model",
				"parameters": {"model": "openai/gpt-4o"},
				"credentials": {"openRouterApi": {"id": "1", "name": "OpenRouter account"}}
			}`,
			wantType: "@n8n/n8n-nodes-langchain.lmChatOpenRouter",
			wantName: "OpenRouter Chat Model",
			wantCreds: []CredentialRef{
				{Type: "openRouterApi", Value: map[string]interface{}{"id": "1", "name": "OpenRouter account"}},
			},
			wantModel: "openai/gpt-4o",
		},
		{
			name:  "missing fields",
			input: `{}`,
		},
		{
			name:     "wrongly typed fields fall back to defaults",
			input:    `{"type": 42, "name": ["x"], "parameters": "oops", "credentials": "nope"}`,
			wantType: "",
			wantName: "",
		},
		{
			name:  "non-object node",
			input: `"just a string"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var node Node
			require.NoError(t, json.Unmarshal([]byte(tt.input), &node))

			assert.Equal(t, tt.wantType, node.Type)
			assert.Equal(t, tt.wantName, node.Name)
			assert.Equal(t, tt.wantCreds, node.Credentials)
			if tt.wantModel != nil {
				assert.Equal(t, tt.wantModel, node.Parameters["model"])
			}
		})
	}
}

func TestNodeCredentialOrder(t *testing.T) {
	input := `{"credentials": {
		"zeta": {"name": "Z key"},
		"alpha": {"name": "A key"},
		"mid": {"name": "M key"}
	}}`

	var node Node
	require.NoError(t, json.Unmarshal([]byte(input), &node))
	require.Len(t, node.Credentials, 3)

	var names []string
	for _, c := range node.Credentials {
		name, ok := c.CredentialName()
		require.True(t, ok)
		names = append(names, name)
	}
	assert.Equal(t, []string{"Z key", "A key", "M key"}, names)

	data, err := json.Marshal(node)
	require.NoError(t, err)

	var again Node
	require.NoError(t, json.Unmarshal(data, &again))
	assert.Equal(t, node.Credentials, again.Credentials)
}

func TestCredentialName(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		want   string
		wantOK bool
	}{
		{"object with name", map[string]interface{}{"name": "prod key"}, "prod key", true},
		{"object without name", map[string]interface{}{"id": "1"}, "", false},
		{"non-string name", map[string]interface{}{"name": 7.0}, "", false},
		{"scalar value", "prod key", "", false},
		{"nil value", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CredentialRef{Type: "api", Value: tt.value}.CredentialName()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanResultPercent(t *testing.T) {
	var empty *ScanResult
	assert.Equal(t, 0, empty.TotalWorkflows())
	assert.Equal(t, 0.0, empty.PreferredPercent())

	result := &ScanResult{
		Preferred: []WorkflowInfo{{ID: "1"}},
		All:       []WorkflowInfo{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}},
	}
	assert.Equal(t, 4, result.TotalWorkflows())
	assert.InDelta(t, 25.0, result.PreferredPercent(), 0.001)
}

func TestWorkflowURL(t *testing.T) {
	assert.Equal(t, "https://n8n.example.com/workflow/42", WorkflowURL("https://n8n.example.com/", "42"))
	assert.Equal(t, "", WorkflowURL("", "42"))
	assert.Equal(t, "", WorkflowURL("https://n8n.example.com", ""))
}
