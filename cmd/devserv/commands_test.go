package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestBuildRootHasAllCommands(t *testing.T) {
	root := buildRoot()
	want := []string{
		"register", "update", "start", "stop", "restart",
		"delete", "describe", "status", "logs", "serve",
	}
	have := make(map[string]bool)
	for _, c := range root.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("missing command %q", name)
		}
	}
}

func TestPersistentFlagsRegistered(t *testing.T) {
	root := buildRoot()
	for _, name := range []string{"config", "registry", "supervisor-bin"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}
}

func TestRegisterRequiresNameAndScript(t *testing.T) {
	root := buildRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"register"})
	err := root.Execute()
	if err == nil {
		t.Fatal("register without flags should fail")
	}
	msg := err.Error()
	if !strings.Contains(msg, "name") || !strings.Contains(msg, "script") {
		t.Fatalf("err = %v", err)
	}
}

func TestStartRequiresExactlyOneArg(t *testing.T) {
	root := buildRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"start"})
	if err := root.Execute(); err == nil {
		t.Fatal("start without a name should fail")
	}
	root = buildRoot()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"start", "a", "b"})
	if err := root.Execute(); err == nil {
		t.Fatal("start with two names should fail")
	}
}

func TestUnknownCommandFails(t *testing.T) {
	root := buildRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"bogus"})
	if err := root.Execute(); err == nil {
		t.Fatal("unknown command should fail")
	}
}

func TestParseEnv(t *testing.T) {
	env := parseEnv([]string{"PORT=3000", "EMPTY=", "malformed", "=nokey"})
	if len(env) != 2 {
		t.Fatalf("env = %v", env)
	}
	if env["PORT"] != "3000" {
		t.Errorf("PORT = %q", env["PORT"])
	}
	if v, ok := env["EMPTY"]; !ok || v != "" {
		t.Errorf("EMPTY = %q, present %v", v, ok)
	}
	if parseEnv(nil) != nil {
		t.Error("nil input should return nil map")
	}
}
