package gemini

import (
	"testing"

	"github.com/tesslearn/tessa-core/core/llms"
)

func TestToContentsMapsRoles(t *testing.T) {
	contents := toContents([]llms.Turn{
		{Role: llms.TurnRoleUser, Content: "explain gravity"},
		{Role: llms.TurnRoleAssistant, Content: "gladly"},
	})

	if len(contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(contents))
	}
	if contents[0].Role != contentRoleUser {
		t.Fatalf("expected user role, got %q", contents[0].Role)
	}
	if contents[1].Role != contentRoleModel {
		t.Fatalf("expected model role, got %q", contents[1].Role)
	}
	if len(contents[1].Parts) != 1 || contents[1].Parts[0].Text != "gladly" {
		t.Fatalf("unexpected parts %+v", contents[1].Parts)
	}
}

func TestToContentsSkipsEmptyTurns(t *testing.T) {
	contents := toContents([]llms.Turn{
		{Role: llms.TurnRoleAssistant, Content: ""},
		{Role: llms.TurnRoleUser, Content: "hello"},
	})

	if len(contents) != 1 {
		t.Fatalf("expected empty turn to be skipped, got %d contents", len(contents))
	}
}
