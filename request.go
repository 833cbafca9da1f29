package simfs

// NodeRequest has common fields embedded in concrete request types
type NodeRequest struct {
	Path string
	Type NodeCreateRequestType
}

// NodeCreateRequestType valid types are FileNodeType "file", DirNodeType "dir"
type NodeCreateRequestType string

const (
	FileNodeType NodeCreateRequestType = "file"
	DirNodeType  NodeCreateRequestType = "dir"
)

// FileCreateRequest asks for a file at Path whose initial content is taken
// from the first source (by ascending Priority) that yields data.
// A request without sources creates an empty file.
type FileCreateRequest struct {
	NodeRequest
	Sources []ContentSource `json:"sources"`
}

type DirCreateRequest struct {
	NodeRequest
}
