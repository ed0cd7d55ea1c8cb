package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mossygate/parley/pkg/orchestrator"
)

func runRootCommandForTest(args ...string) (string, error) {
	root := buildRootCommand()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootHelpListsCommands(t *testing.T) {
	output, err := runRootCommandForTest("--help")
	if err != nil {
		t.Fatalf("help failed: %v\n%s", err, output)
	}
	for _, cmd := range []string{"onboard", "chat", "gateway", "status", "actors", "reputation", "memory", "version"} {
		if !strings.Contains(output, cmd) {
			t.Errorf("root help missing command %q:\n%s", cmd, output)
		}
	}
}

func TestSubcommandHelp(t *testing.T) {
	cases := [][]string{
		{"actors", "--help"},
		{"reputation", "--help"},
		{"memory", "--help"},
		{"chat", "--help"},
	}
	for _, args := range cases {
		output, err := runRootCommandForTest(args...)
		if err != nil {
			t.Errorf("%v failed: %v\n%s", args, err, output)
		}
	}
}

func TestUnknownCommandFails(t *testing.T) {
	if _, err := runRootCommandForTest("frobnicate"); err == nil {
		t.Fatal("unknown command should error")
	}
}

func TestChatRequiresActor(t *testing.T) {
	if _, err := runRootCommandForTest("chat"); err == nil {
		t.Fatal("chat without --actor should error")
	}
}

func TestDefaultValidators(t *testing.T) {
	validators := defaultValidators()
	if len(validators) == 0 {
		t.Fatal("expected at least one validator")
	}
	validate := validators[0]

	if err := validate(orchestrator.Request{Input: "hello"}); err != nil {
		t.Errorf("normal input rejected: %v", err)
	}
	if err := validate(orchestrator.Request{Input: "   "}); err == nil {
		t.Error("blank input should be rejected")
	}
	if err := validate(orchestrator.Request{Input: strings.Repeat("x", maxInputRunes+1)}); err == nil {
		t.Error("oversized input should be rejected")
	}
}
