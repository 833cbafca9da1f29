package filesystem

import (
	"fmt"

	"github.com/brettbedarf/simfs"
)

// toImage captures n and its descendants as a serializable image
func toImage(n *Node) *simfs.NodeImage {
	img := &simfs.NodeImage{
		ID:        n.id,
		Type:      n.kind,
		Name:      n.name,
		CreatedAt: n.createdAt,
		UpdatedAt: n.updatedAt,
		Content:   n.content,
		Extension: n.extension,
	}
	if len(n.children) > 0 {
		img.Children = make([]*simfs.NodeImage, 0, len(n.children))
		for _, c := range n.children {
			img.Children = append(img.Children, toImage(c))
		}
	}
	return img
}

// fromImage rebuilds a tree from a root image
func fromImage(img *simfs.NodeImage) (*Node, error) {
	if img == nil {
		return nil, fmt.Errorf("empty image")
	}
	if img.Type != simfs.DirectoryType {
		return nil, fmt.Errorf("root is %s, want %s", img.Type, simfs.DirectoryType)
	}
	root, err := nodeFromImage(img)
	if err != nil {
		return nil, err
	}
	root.name = rootName
	return root, nil
}

func nodeFromImage(img *simfs.NodeImage) (*Node, error) {
	n := &Node{
		id:        img.ID,
		kind:      img.Type,
		name:      img.Name,
		createdAt: img.CreatedAt,
		updatedAt: img.UpdatedAt,
	}
	switch img.Type {
	case simfs.FileType:
		if len(img.Children) > 0 {
			return nil, fmt.Errorf("file %q has children", img.Name)
		}
		n.content = img.Content
		n.extension = img.Extension
	case simfs.DirectoryType:
		n.index = newIndex()
		n.children = make([]*Node, 0, len(img.Children))
		for _, ci := range img.Children {
			if ci == nil {
				continue
			}
			if err := ValidateName(ci.Name); err != nil {
				return nil, fmt.Errorf("node %q: %w", ci.Name, err)
			}
			child, err := nodeFromImage(ci)
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
			n.index.LoadOrStore(child.name, child)
			child.parent = n
		}
	default:
		return nil, fmt.Errorf("node %q: unknown type %q", img.Name, img.Type)
	}
	return n, nil
}
