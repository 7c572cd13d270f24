package document

// SDKName is the name an API is published under: info.x-sdk-name when the document
// sets it, else apiID
func SDKName(doc *Node, apiID string) string {
	if name := doc.Get("info").Get("x-sdk-name").Str(); name != "" {
		return name
	}
	return apiID
}

// Title returns info.title
func Title(doc *Node) string {
	return doc.Get("info").Get("title").Str()
}
