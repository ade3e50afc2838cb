// Package classifier detects which chat model integration each workflow uses.
package classifier

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/younsl/n8n-model-tracker/pkg/models"
)

const (
	// PreferredNodeType is the node type of the OpenRouter chat model.
	PreferredNodeType = "@n8n/n8n-nodes-langchain.lmChatOpenRouter"

	// ChatTypeMarker and ChatNameMarker flag any other chat model node.
	// They are checked independently, so a node matches on its name alone.
	ChatTypeMarker = "lmChat"
	ChatNameMarker = "ChatModel"

	ModelParameter = "model"
	DynamicModel   = "Dynamic"

	UnnamedWorkflow = "Unnamed Workflow"
	NonePlaceholder = "None"
	listSeparator   = ", "
)

type nodeKind int

const (
	kindNone nodeKind = iota
	kindPreferred
	kindOther
)

func classifyNode(node models.Node) nodeKind {
	if node.Type == PreferredNodeType {
		return kindPreferred
	}
	if strings.Contains(node.Type, ChatTypeMarker) || strings.Contains(node.Name, ChatNameMarker) {
		return kindOther
	}
	return kindNone
}

// Classify partitions workflows into those using the preferred provider,
// those using any other chat model, and all workflows. A workflow with both
// kinds of node appears in both lists. Output order follows input order.
func Classify(workflows []models.Workflow) (preferred, other, all []models.WorkflowInfo) {
	preferred = []models.WorkflowInfo{}
	other = []models.WorkflowInfo{}
	all = make([]models.WorkflowInfo, 0, len(workflows))

	for _, wf := range workflows {
		info, hasPreferred, hasOther := describe(wf)

		all = append(all, info)
		if hasPreferred {
			preferred = append(preferred, info)
		}
		if hasOther {
			other = append(other, info)
		}
	}
	return preferred, other, all
}

// ClassifyResult wraps Classify into a ScanResult.
func ClassifyResult(workflows []models.Workflow) *models.ScanResult {
	preferred, other, all := Classify(workflows)
	return &models.ScanResult{
		Preferred: preferred,
		Other:     other,
		All:       all,
	}
}

func describe(wf models.Workflow) (info models.WorkflowInfo, hasPreferred, hasOther bool) {
	var chatModels, keys, modelsUsed []string

	for _, node := range wf.Nodes {
		kind := classifyNode(node)
		if kind == kindNone {
			continue
		}

		if kind == kindPreferred {
			hasPreferred = true
		} else {
			hasOther = true
		}

		chatModels = append(chatModels, node.Name)

		for _, cred := range node.Credentials {
			if name, ok := cred.CredentialName(); ok {
				keys = append(keys, name)
			}
		}

		if kind == kindPreferred {
			if model, ok := modelValue(node.Parameters[ModelParameter]); ok {
				modelsUsed = append(modelsUsed, model)
			}
		}
	}

	name := wf.Name
	if name == "" {
		name = UnnamedWorkflow
	}

	info = models.WorkflowInfo{
		ID:            wf.ID,
		Name:          name,
		Active:        wf.Active,
		ChatModelUsed: joinOr(chatModels, NonePlaceholder),
		Key:           joinOr(keys, NonePlaceholder),
		ModelUsed:     joinOr(modelsUsed, ""),
	}
	return info, hasPreferred, hasOther
}

// modelValue renders the selected model parameter. Objects hold an
// expression resolved at runtime and are reported as Dynamic. Empty values
// are skipped.
func modelValue(v interface{}) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case map[string]interface{}:
		if len(val) == 0 {
			return "", false
		}
		return DynamicModel, true
	case string:
		return val, val != ""
	case bool:
		return strconv.FormatBool(val), val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), val != 0
	default:
		return fmt.Sprint(val), true
	}
}

func joinOr(values []string, placeholder string) string {
	if len(values) == 0 {
		return placeholder
	}
	return strings.Join(values, listSeparator)
}
