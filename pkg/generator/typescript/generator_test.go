package typescript

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/sdkforge/sdk-gen/pkg/config"
	"github.com/sdkforge/sdk-gen/pkg/ir"
)

func lobbyIR() *ir.IR {
	in := testIR()
	api := in.APIs[0]
	api.BasePath = "/lobby/1"
	api.Tags = []string{"Lobby"}
	lobby := ir.Object{Ref: ir.DefinitionID{Namespace: "Sdk.Lobby", Name: "Lobby"}}
	api.Operations = []*ir.OperationNode{
		{
			APIID: "lobby", HTTPPath: "/lobby/{id}", HTTPMethod: "get", OperationID: "lobbyGET", Tag: "Lobby",
			DisplayName:        "Gets a lobby",
			ImplementationName: "Sdk.Lobby_Lobby_lobbyGET",
			Parameters: []ir.ParameterSpec{
				{Name: "id", Location: ir.InPath, Required: true, Type: ir.Primitive{Type: ir.Int64, Required: true}},
				{Name: "limit", Location: ir.InQuery, Type: ir.Primitive{Type: ir.Int32}},
			},
			Response: lobby,
		},
		{
			APIID: "lobby", HTTPPath: "/lobby", HTTPMethod: "put", OperationID: "lobbyPUT", Tag: "Lobby",
			ImplementationName: "Sdk.Lobby_Lobby_lobbyPUT",
			Parameters: []ir.ParameterSpec{
				{Name: "lobby", Location: ir.InBody, Required: true, Type: lobby},
			},
		},
		{
			APIID: "lobby", HTTPPath: "/lobby/{id}/export", HTTPMethod: "get", OperationID: "exportGET", Tag: "Lobby",
			ImplementationName:     "Sdk.Lobby_Lobby_exportGET",
			BinaryResponseHandling: ir.BinaryResponseRedirect,
			Parameters: []ir.ParameterSpec{
				{Name: "id", Location: ir.InPath, Required: true, Type: ir.Primitive{Type: ir.String, Required: true}},
			},
		},
		{
			APIID: "lobby", HTTPPath: "/lobby/connect", HTTPMethod: "get", OperationID: "connectGET", Tag: "Lobby",
			ImplementationName: "Sdk.Lobby_Lobby_connectGET",
			IsWebSocket:        true,
			RequestMessages:    []ir.ProtocolMessage{{ID: "lobby/chat", Type: ir.Primitive{Type: ir.String, Required: true}}},
			ResponseMessages:   []ir.ProtocolMessage{{ID: "lobby/member-joined", Type: lobby}},
		},
	}
	return in
}

func TestNamespace(t *testing.T) {
	g := NewTypeScriptGenerator()
	tests := []struct {
		apiID, version, expected string
	}{
		{"lobby", "", "Sdk.Lobby"},
		{"lobby", "v1", "Sdk.Lobby"},
		{"lobby", "2", "Sdk.LobbyV2"},
		{"temp-session", "", "Sdk.TempSession"},
	}
	for _, test := range tests {
		if got := g.Namespace("Sdk", test.apiID, test.version, nil); got != test.expected {
			t.Errorf("Namespace(%q, %q) = %q, expected %q", test.apiID, test.version, got, test.expected)
		}
	}
	if got := g.SharedNamespace("Sdk"); got != "Sdk" {
		t.Errorf("SharedNamespace() = %q", got)
	}
}

func TestGenerate(t *testing.T) {
	out := t.TempDir()
	client := config.Client{Type: "typescript", OutDir: out, PackageName: "@sdk/lobby", Name: "LobbyClient"}

	files, err := NewTypeScriptGenerator().Generate(client, lobbyIR())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	expectFile := func(rel string, snippets ...string) {
		t.Helper()
		data, ok := files.Get(filepath.Join(out, rel))
		if !ok {
			t.Errorf("missing %s", rel)
			return
		}
		for _, s := range snippets {
			if !strings.Contains(string(data), s) {
				t.Errorf("%s lacks %q\n%s", rel, s, data)
			}
		}
	}

	expectFile("src/shared.ts", "export interface SystemError {", "public readonly error: SystemError | undefined")
	expectFile("src/lobby/schema.ts", "export interface Lobby {", "export interface Member {")
	expectFile("src/lobby/lobby-client.ts",
		`import type { Lobby, Member } from "./schema";`,
		"export class LobbyClient extends ApiClient {",
		"async lobbyGet(args: LobbyGetRequest, signal?: AbortSignal): Promise<Lobby> {",
		"const url = this.url(`/lobby/1/lobby/${encodeURIComponent(String(args.id))}`, {",
		`"limit": args.limit == null ? undefined : String(args.limit),`,
		"body: JSON.stringify(args.lobby),",
		`contentType: "application/json",`,
		"async lobbyPut(args: LobbyPutRequest, signal?: AbortSignal): Promise<void> {",
		`redirect: "manual",`,
		`return res.headers.get("Location") ?? "";`,
		"export class ConnectGetSocket {",
		"onLobbyMemberJoined?: (value: Lobby) => void;",
		"sendLobbyChat(value: string): void {",
		"connectGet(args: ConnectGetRequest): ConnectGetSocket {",
		"  limit?: number | null;",
	)
	expectFile("src/lobby/index.ts", `export * from "./lobby-client";`)
	expectFile("src/index.ts", `export * as Lobby from "./lobby";`)
	expectFile("package.json", `"name": "@sdk/lobby"`)
	expectFile("README.md", "`LobbyClient`")
}
