package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Node is a single operation inside a workflow. Only the fields used for
// chat model detection are kept.
type Node struct {
	Type        string
	Name        string
	Credentials []CredentialRef
	Parameters  map[string]interface{}
}

// CredentialRef is one entry of a node's credentials object, kept in
// document order.
type CredentialRef struct {
	Type  string
	Value interface{}
}

// CredentialName returns the "name" field of the credential value when the
// value is an object carrying a string name.
func (c CredentialRef) CredentialName() (string, bool) {
	obj, ok := c.Value.(map[string]interface{})
	if !ok {
		return "", false
	}
	name, ok := obj["name"].(string)
	return name, ok
}

// UnmarshalJSON decodes a node leniently: fields with unexpected types fall
// back to their zero value instead of failing the whole page.
func (n *Node) UnmarshalJSON(data []byte) error {
	*n = Node{}
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var raw struct {
		Type        interface{}     `json:"type"`
		Name        interface{}     `json:"name"`
		Credentials json.RawMessage `json:"credentials"`
		Parameters  interface{}     `json:"parameters"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	n.Type, _ = raw.Type.(string)
	n.Name, _ = raw.Name.(string)
	n.Parameters, _ = raw.Parameters.(map[string]interface{})

	creds, err := decodeCredentials(raw.Credentials)
	if err != nil {
		return fmt.Errorf("failed to decode credentials of node %q: %w", n.Name, err)
	}
	n.Credentials = creds
	return nil
}

// MarshalJSON encodes the node back into the n8n shape, credentials in
// their original order.
func (n Node) MarshalJSON() ([]byte, error) {
	var creds json.RawMessage
	if len(n.Credentials) > 0 {
		var buf bytes.Buffer
		buf.WriteString("{")
		for i, c := range n.Credentials {
			if i > 0 {
				buf.WriteString(",")
			}
			key, err := json.Marshal(c.Type)
			if err != nil {
				return nil, err
			}
			value, err := json.Marshal(c.Value)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteString(":")
			buf.Write(value)
		}
		buf.WriteString("}")
		creds = buf.Bytes()
	}

	return json.Marshal(struct {
		Type        string                 `json:"type"`
		Name        string                 `json:"name"`
		Parameters  map[string]interface{} `json:"parameters,omitempty"`
		Credentials json.RawMessage        `json:"credentials,omitempty"`
	}{
		Type:        n.Type,
		Name:        n.Name,
		Parameters:  n.Parameters,
		Credentials: creds,
	})
}

// decodeCredentials walks the credentials object token by token so entries
// keep the order they had in the document. Anything other than an object
// yields no credentials.
func decodeCredentials(data json.RawMessage) ([]CredentialRef, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil
	}

	var creds []CredentialRef
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		creds = append(creds, CredentialRef{Type: key, Value: value})
	}
	return creds, nil
}
