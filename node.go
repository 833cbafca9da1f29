package simfs

import "time"

// NodeType is the discriminant of the two node variants
type NodeType string

const (
	DirectoryType NodeType = "DIR"
	FileType      NodeType = "FILE"
)

// NodeInfo provides a read-only description of a node for external consumers
type NodeInfo struct {
	ID        string
	Type      NodeType
	Name      string
	Path      string // Absolute path from root
	Size      int64  // Content length for files; child count for directories
	Extension string // Empty for directories and files without an extension
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDir reports whether the described node is a directory
func (i NodeInfo) IsDir() bool {
	return i.Type == DirectoryType
}

// ListEntry is a single row of a directory listing
type ListEntry struct {
	Type         NodeType
	LastModified time.Time
	Name         string
}

// NodeImage is the serializable form of a node and, recursively, its
// descendants. A tree image is the root's NodeImage.
type NodeImage struct {
	ID        string       `json:"id"`
	Type      NodeType     `json:"type"`
	Name      string       `json:"name"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Content   string       `json:"content,omitempty"`
	Extension string       `json:"extension,omitempty"`
	Children  []*NodeImage `json:"children,omitempty"`
}

// Count returns the number of nodes in the image including itself
func (img *NodeImage) Count() int {
	if img == nil {
		return 0
	}
	n := 1
	for _, c := range img.Children {
		n += c.Count()
	}
	return n
}
