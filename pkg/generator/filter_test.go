package generator

import (
	"strings"
	"testing"

	"github.com/sdkforge/sdk-gen/pkg/config"
	"github.com/sdkforge/sdk-gen/pkg/ir"
)

func TestShouldIncludeOperation(t *testing.T) {
	tests := []struct {
		name        string
		tag         string
		includeTags []string
		excludeTags []string
		expected    bool
	}{
		{name: "no filters - include all", tag: "users", expected: true},
		{name: "include filter matches", tag: "users", includeTags: []string{"users"}, expected: true},
		{name: "include filter matches none", tag: "admin", includeTags: []string{"users"}, expected: false},
		{name: "exclude filter matches", tag: "internal", excludeTags: []string{"internal"}, expected: false},
		{name: "exclude takes precedence over include", tag: "users_internal", includeTags: []string{"users"}, excludeTags: []string{"internal"}, expected: false},
		{name: "include matches, exclude doesn't", tag: "users", includeTags: []string{"users"}, excludeTags: []string{"internal"}, expected: true},
		{name: "regex include matches", tag: "users_v1", includeTags: []string{"^users_.*"}, expected: true},
		{name: "regex exclude matches", tag: "users_api", includeTags: []string{"^users_.*"}, excludeTags: []string{".*_api$"}, expected: false},
		{name: "multiple include patterns - any match", tag: "orders", includeTags: []string{"users", "orders"}, expected: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			include, exclude, err := compileTagFilters(test.includeTags, test.excludeTags)
			if err != nil {
				t.Fatalf("compileTagFilters() error = %v", err)
			}
			if got := shouldIncludeOperation(test.tag, include, exclude); got != test.expected {
				t.Errorf("shouldIncludeOperation(%q, %v, %v) = %v, expected %v",
					test.tag, test.includeTags, test.excludeTags, got, test.expected)
			}
		})
	}
}

func TestCompileTagFiltersRejectsBadPattern(t *testing.T) {
	_, _, err := compileTagFilters([]string{"("}, nil)
	if err == nil || !strings.Contains(err.Error(), "invalid includeTags pattern") {
		t.Errorf("error = %v", err)
	}
}

func TestFilterIR(t *testing.T) {
	full, err := BuildIR([]Document{parseDoc(t, "lobby", lobbyDoc)}, testOptions())
	if err != nil {
		t.Fatalf("BuildIR() error = %v", err)
	}

	tests := []struct {
		name        string
		client      config.Client
		operations  string
		tags        string
		definitions string
	}{
		{
			name:        "cluster-only dropped by default",
			client:      config.Client{},
			operations:  "lobbyGET,lobbyDELETE",
			tags:        "Lobby",
			definitions: "Member,Lobby,AdminInfoDisk,AdminInfo",
		},
		{
			name:        "cluster-only kept on request",
			client:      config.Client{IncludeClusterOnly: true},
			operations:  "lobbyGET,lobbyDELETE,adminGET",
			tags:        "Lobby,Admin",
			definitions: "Member,Lobby,AdminInfoDisk,AdminInfo",
		},
		{
			name:        "tag filter prunes unreachable definitions",
			client:      config.Client{IncludeTags: []string{"^Lobby$"}},
			operations:  "lobbyGET,lobbyDELETE",
			tags:        "Lobby",
			definitions: "Member,Lobby",
		},
		{
			name:        "exclude everything",
			client:      config.Client{IncludeClusterOnly: true, ExcludeTags: []string{".*"}},
			operations:  "",
			tags:        "",
			definitions: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filtered, err := filterIR(full, tt.client)
			if err != nil {
				t.Fatalf("filterIR() error = %v", err)
			}
			api := filtered.APIs[0]
			var ops []string
			for _, op := range api.Operations {
				ops = append(ops, op.OperationID)
			}
			if got := strings.Join(ops, ","); got != tt.operations {
				t.Errorf("operations = %s, want %s", got, tt.operations)
			}
			if got := strings.Join(api.Tags, ","); got != tt.tags {
				t.Errorf("tags = %s, want %s", got, tt.tags)
			}
			if got := strings.Join(definitionNames(api), ","); got != tt.definitions {
				t.Errorf("definitions = %s, want %s", got, tt.definitions)
			}
			if filtered.SystemError != full.SystemError {
				t.Error("system error not carried over")
			}
		})
	}

	if len(full.APIs[0].Operations) != 3 {
		t.Error("filterIR modified its input")
	}
	if _, ok := full.Lookup(ir.DefinitionID{Namespace: "HiveMP.Lobby", Name: "AdminInfo"}); !ok {
		t.Error("filterIR pruned the input registry")
	}
}
