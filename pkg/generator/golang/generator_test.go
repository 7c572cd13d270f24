package golang

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sdkforge/sdk-gen/pkg/config"
	"github.com/sdkforge/sdk-gen/pkg/document"
	"github.com/sdkforge/sdk-gen/pkg/ir"
)

func lobbyIR() *ir.IR {
	in := testIR()
	api := in.APIs[0]
	api.BasePath = "/lobby/1"
	api.FriendlyName = "Lobby"
	api.Tags = []string{"Lobby"}
	lobby := ir.Object{Ref: ir.DefinitionID{Namespace: "HiveMP.Lobby", Name: "Lobby"}}
	api.Operations = []*ir.OperationNode{
		{
			APIID: "lobby", HTTPPath: "/lobby/{id}", HTTPMethod: "get", OperationID: "lobbyGET", Tag: "Lobby",
			DisplayName:        "Gets a lobby",
			ImplementationName: "HiveMP.Lobby_Lobby_lobbyGET",
			Parameters: []ir.ParameterSpec{
				{Name: "id", Location: ir.InPath, Required: true, Type: ir.Primitive{Type: ir.Int64, Required: true}},
				{Name: "filter", Location: ir.InQuery, Type: ir.Primitive{Type: ir.String}},
			},
			Response: lobby,
		},
		{
			APIID: "lobby", HTTPPath: "/lobby", HTTPMethod: "put", OperationID: "lobbyPUT", Tag: "Lobby",
			ImplementationName: "HiveMP.Lobby_Lobby_lobbyPUT",
			Parameters: []ir.ParameterSpec{
				{Name: "lobby", Location: ir.InBody, Required: true, Type: lobby},
			},
		},
		{
			APIID: "lobby", HTTPPath: "/lobby/avatar", HTTPMethod: "put", OperationID: "avatarPUT", Tag: "Lobby",
			ImplementationName: "HiveMP.Lobby_Lobby_avatarPUT",
			IsFileUpload:       true,
			Parameters: []ir.ParameterSpec{
				{Name: "data", Location: ir.InBody, Required: true, Format: "binary", Type: ir.Primitive{Type: ir.Binary, Required: true}},
			},
		},
		{
			APIID: "lobby", HTTPPath: "/lobby/avatar", HTTPMethod: "get", OperationID: "avatarGET", Tag: "Lobby",
			ImplementationName:     "HiveMP.Lobby_Lobby_avatarGET",
			BinaryResponseHandling: ir.BinaryResponseRedirect,
		},
		{
			APIID: "lobby", HTTPPath: "/lobby/connect", HTTPMethod: "get", OperationID: "connectGET", Tag: "Lobby",
			ImplementationName: "HiveMP.Lobby_Lobby_connectGET",
			IsWebSocket:        true,
			RequestMessages:    []ir.ProtocolMessage{{ID: "lobby/chat", Type: ir.Primitive{Type: ir.String, Required: true}}},
			ResponseMessages:   []ir.ProtocolMessage{{ID: "lobby/member-joined", Type: lobby}},
		},
	}
	return in
}

func TestNamespace(t *testing.T) {
	doc, err := document.Parse([]byte(`{"info": {"x-sdk-name": "temp-session"}}`))
	if err != nil {
		t.Fatal(err)
	}
	g := NewGoGenerator()
	tests := []struct {
		apiID, version string
		doc            *document.Node
		expected       string
	}{
		{"lobby", "", nil, "HiveMP.Lobby"},
		{"lobby", "v1", nil, "HiveMP.Lobby"},
		{"lobby", "2", nil, "HiveMP.LobbyV2"},
		{"temp-session", "", doc, "HiveMP.TempSession"},
	}
	for _, test := range tests {
		if got := g.Namespace("HiveMP", test.apiID, test.version, test.doc); got != test.expected {
			t.Errorf("Namespace(%q, %q) = %q, expected %q", test.apiID, test.version, got, test.expected)
		}
	}
	if got := g.SharedNamespace("HiveMP"); got != "HiveMP" {
		t.Errorf("SharedNamespace() = %q", got)
	}
}

func TestGenerate(t *testing.T) {
	out := t.TempDir()
	client := config.Client{Type: "go", OutDir: out, PackageName: "example.com/hivemp", Name: "HiveMP"}

	files, err := NewGoGenerator().Generate(client, lobbyIR())
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
				t.Errorf("%s lacks %q:\n%s", rel, s, data)
			}
		}
	}

	expectFile("client.go",
		"package hivemp",
		"type SystemError struct {",
		"apiErr.Err = &decoded",
		`"encoding/json"`,
		`"net/http"`,
		"func (c *Client) Do(ctx context.Context, req *Request) (*http.Response, error) {",
	)
	expectFile("socket.go", `"github.com/gorilla/websocket"`, "func (c *Client) Dial(")
	expectFile(filepath.Join("lobby", "models.go"),
		"// Package lobby is the Lobby API.",
		`"example.com/hivemp"`,
		"hivemp.SystemError",
	)
	expectFile(filepath.Join("lobby", "lobby.go"),
		"package lobby",
		`"strconv"`,
		"func NewLobbyClient(client *hivemp.Client) *LobbyClient {",
		"// LobbyGet Gets a lobby",
		"func (c *LobbyClient) LobbyGet(ctx context.Context, args LobbyGetRequest) (*Lobby, error) {",
		`"/lobby/1" + "/lobby/" + url.PathEscape(strconv.FormatInt(args.ID, 10))`,
		"if args.Filter != nil {",
		`req.Query.Set("filter", *args.Filter)`,
		"func (c *LobbyClient) LobbyPut(ctx context.Context, args LobbyPutRequest) error {",
		"body, err := hivemp.JSONBody(args.Lobby)",
		"req.Body = bytes.NewReader(args.Data)",
		"func (c *LobbyClient) AvatarGet(ctx context.Context, args AvatarGetRequest) (string, error) {",
		"req.NoRedirect = true",
		"func (c *LobbyClient) ConnectGet(ctx context.Context, args ConnectGetRequest) (*ConnectGetSocket, error) {",
		"func (s *ConnectGetSocket) SendLobbyChat(value string) error {",
		"OnLobbyMemberJoined func(*Lobby)",
		`case "lobby/member-joined":`,
	)
	expectFile("go.mod", "module example.com/hivemp", "require github.com/gorilla/websocket v1.5.3")
	expectFile("README.md", "`example.com/hivemp/lobby`", "- `LobbyClient`")
}

func TestGenerateWithoutSockets(t *testing.T) {
	in := lobbyIR()
	in.APIs[0].Operations = in.APIs[0].Operations[:1]
	out := t.TempDir()

	files, err := NewGoGenerator().Generate(config.Client{OutDir: out, PackageName: "example.com/hivemp"}, in)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if _, ok := files.Get(filepath.Join(out, "socket.go")); ok {
		t.Error("socket.go rendered for an SDK without WebSocket operations")
	}
	mod, _ := files.Get(filepath.Join(out, "go.mod"))
	if strings.Contains(string(mod), "gorilla") {
		t.Errorf("go.mod requires websocket without sockets:\n%s", mod)
	}
}

func TestGenerateRejectsStructuredQueryParameter(t *testing.T) {
	in := lobbyIR()
	in.APIs[0].Operations[0].Parameters[1].Type = ir.Array{Element: ir.Primitive{Type: ir.String, Required: true}}

	_, err := NewGoGenerator().Generate(config.Client{OutDir: t.TempDir(), PackageName: "x"}, in)
	if !errors.Is(err, ir.ErrUnrepresentableType) {
		t.Fatalf("error = %v, want ErrUnrepresentableType", err)
	}
	if !strings.Contains(err.Error(), "HiveMP.Lobby_Lobby_lobbyGET") {
		t.Errorf("error does not locate the operation: %v", err)
	}
}

func TestFormatSourceAddsImports(t *testing.T) {
	src := []byte("package lobby\n\nfunc f(u string) string { x := strings.ToUpper(u); return sdk.Name + x }\n")
	known := map[string]string{
		"sdk":       "example.com/sdk-go",
		"session":   "example.com/sdk-go/session",
		"websocket": websocketModule,
	}
	got, err := formatSource("lobby/service.go", src, known)
	if err != nil {
		t.Fatalf("formatSource() error = %v", err)
	}
	for _, want := range []string{`"strings"`, `sdk "example.com/sdk-go"`, "\tx := strings.ToUpper(u)"} {
		if !strings.Contains(string(got), want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
	for _, unwanted := range []string{`"net/url"`, `"example.com/sdk-go/session"`, websocketModule} {
		if strings.Contains(string(got), unwanted) {
			t.Errorf("unused import %s kept:\n%s", unwanted, got)
		}
	}
}
