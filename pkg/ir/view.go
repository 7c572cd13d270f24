package ir

// View is a serializable snapshot of an IR, used by the `ir` command to dump what the
// normalizer produced. Type nodes are rendered with TypeString.
type View struct {
	SharedNamespace string          `json:"sharedNamespace" yaml:"sharedNamespace"`
	SystemError     *DefinitionView `json:"systemError,omitempty" yaml:"systemError,omitempty"`
	APIs            []ApiView       `json:"apis" yaml:"apis"`
}

type ApiView struct {
	ID           string           `json:"id" yaml:"id"`
	Version      string           `json:"version,omitempty" yaml:"version,omitempty"`
	FriendlyName string           `json:"friendlyName" yaml:"friendlyName"`
	Namespace    string           `json:"namespace" yaml:"namespace"`
	BasePath     string           `json:"basePath,omitempty" yaml:"basePath,omitempty"`
	Tags         []string         `json:"tags" yaml:"tags"`
	Definitions  []DefinitionView `json:"definitions" yaml:"definitions"`
	Operations   []OperationView  `json:"operations" yaml:"operations"`
}

type DefinitionView struct {
	Name       string         `json:"name" yaml:"name"`
	Properties []PropertyView `json:"properties" yaml:"properties"`
}

type PropertyView struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

type OperationView struct {
	ImplementationName string          `json:"implementationName" yaml:"implementationName"`
	Method             string          `json:"method" yaml:"method"`
	Path               string          `json:"path" yaml:"path"`
	Tag                string          `json:"tag" yaml:"tag"`
	DisplayName        string          `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Parameters         []ParameterView `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Response           string          `json:"response" yaml:"response"`
	ClusterOnly        bool            `json:"clusterOnly,omitempty" yaml:"clusterOnly,omitempty"`
	FileUpload         bool            `json:"fileUpload,omitempty" yaml:"fileUpload,omitempty"`
	BinaryResponse     string          `json:"binaryResponse,omitempty" yaml:"binaryResponse,omitempty"`
	RequestMessages    []PropertyView  `json:"requestMessages,omitempty" yaml:"requestMessages,omitempty"`
	ResponseMessages   []PropertyView  `json:"responseMessages,omitempty" yaml:"responseMessages,omitempty"`
}

type ParameterView struct {
	Name     string `json:"name" yaml:"name"`
	In       string `json:"in" yaml:"in"`
	Required bool   `json:"required" yaml:"required"`
	Type     string `json:"type" yaml:"type"`
}

// View builds the serializable snapshot
func (in *IR) View() View {
	v := View{SharedNamespace: in.SharedNamespace}
	if in.SystemError != nil {
		d := definitionView(in.SystemError)
		v.SystemError = &d
	}
	for _, api := range in.APIs {
		av := ApiView{
			ID:           api.APIID,
			Version:      api.Version,
			FriendlyName: api.FriendlyName,
			Namespace:    api.Namespace,
			BasePath:     api.BasePath,
			Tags:         api.Tags,
		}
		for def := range api.Definitions.Values() {
			av.Definitions = append(av.Definitions, definitionView(def))
		}
		for _, op := range api.Operations {
			av.Operations = append(av.Operations, operationView(op))
		}
		v.APIs = append(v.APIs, av)
	}
	return v
}

func definitionView(def *DefinitionSpec) DefinitionView {
	dv := DefinitionView{Name: def.ID.String()}
	for _, p := range def.Properties {
		dv.Properties = append(dv.Properties, PropertyView{Name: p.Name, Type: TypeString(p.Type)})
	}
	return dv
}

func operationView(op *OperationNode) OperationView {
	ov := OperationView{
		ImplementationName: op.ImplementationName,
		Method:             op.HTTPMethod,
		Path:               op.HTTPPath,
		Tag:                op.Tag,
		DisplayName:        op.DisplayName,
		Response:           TypeString(op.Response),
		ClusterOnly:        op.IsClusterOnly,
		FileUpload:         op.IsFileUpload,
		BinaryResponse:     string(op.BinaryResponseHandling),
	}
	for _, p := range op.Parameters {
		ov.Parameters = append(ov.Parameters, ParameterView{
			Name:     p.Name,
			In:       string(p.Location),
			Required: p.Required,
			Type:     TypeString(p.Type),
		})
	}
	for _, m := range op.RequestMessages {
		ov.RequestMessages = append(ov.RequestMessages, PropertyView{Name: m.ID, Type: TypeString(m.Type)})
	}
	for _, m := range op.ResponseMessages {
		ov.ResponseMessages = append(ov.ResponseMessages, PropertyView{Name: m.ID, Type: TypeString(m.Type)})
	}
	return ov
}
