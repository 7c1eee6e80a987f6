package domain

import (
	"fmt"
	"io"
	"strings"
)

// FileUpload carries one uploaded file from a multipart request.
// Data is read exactly once when the file is pushed to the object store.
type FileUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// VariantOp identifies the kind of color-variant edit instruction.
type VariantOp string

const (
	VariantOpAdd          VariantOp = "add"
	VariantOpRename       VariantOp = "rename"
	VariantOpReplaceImage VariantOp = "replace_image"
	VariantOpDelete       VariantOp = "delete"
)

// VariantInstruction is a single color-variant edit parsed from an update
// request. For rename, replace_image, and delete, ID targets an existing
// variant. For add, ID is the client-chosen correlation token that links the
// instruction to its uploaded file part; the persisted variant gets a fresh
// server-assigned ID.
type VariantInstruction struct {
	Op   VariantOp
	ID   string
	Name string
	File *FileUpload
}

// Validate checks the structural requirements of an instruction.
func (in VariantInstruction) Validate() error {
	switch in.Op {
	case VariantOpAdd:
		if strings.TrimSpace(in.Name) == "" {
			return fmt.Errorf("add variant: name is required")
		}
		if in.File == nil {
			return fmt.Errorf("add variant %q: image file is required", in.Name)
		}
	case VariantOpRename:
		if in.ID == "" {
			return fmt.Errorf("rename variant: id is required")
		}
		if strings.TrimSpace(in.Name) == "" {
			return fmt.Errorf("rename variant %s: name is required", in.ID)
		}
	case VariantOpReplaceImage:
		if in.ID == "" {
			return fmt.Errorf("replace variant image: id is required")
		}
		if in.File == nil {
			return fmt.Errorf("replace variant image %s: file is required", in.ID)
		}
	case VariantOpDelete:
		if in.ID == "" {
			return fmt.Errorf("delete variant: id is required")
		}
	default:
		return fmt.Errorf("unknown variant operation %q", in.Op)
	}
	return nil
}

// VariantEdit is one entry of the colors field in a multipart edit request,
// before it is resolved against the stored variant list. ID is either the ID
// of an existing variant or an opaque client token correlating a new variant
// with its uploaded file part; it is never persisted for new variants.
type VariantEdit struct {
	ID          string
	Name        string
	HasNewImage bool
	Delete      bool
	File        *FileUpload
}

// ExpandVariantEdits resolves wire-level edits into typed instructions against
// the stored variant list. An entry whose ID matches an existing variant is an
// edit: a rename, plus an image replacement when a new file is flagged. Every
// other entry is an addition; its ID is kept only as a correlation token and
// the server assigns the persisted ID.
func ExpandVariantEdits(existing []ColorVariant, edits []VariantEdit) []VariantInstruction {
	known := make(map[string]struct{}, len(existing))
	for _, v := range existing {
		known[v.ID] = struct{}{}
	}

	var out []VariantInstruction
	for _, e := range edits {
		if e.Delete {
			out = append(out, VariantInstruction{Op: VariantOpDelete, ID: e.ID})
			continue
		}
		if _, ok := known[e.ID]; ok && e.ID != "" {
			out = append(out, VariantInstruction{Op: VariantOpRename, ID: e.ID, Name: e.Name})
			if e.HasNewImage || e.File != nil {
				out = append(out, VariantInstruction{Op: VariantOpReplaceImage, ID: e.ID, File: e.File})
			}
			continue
		}
		out = append(out, VariantInstruction{Op: VariantOpAdd, ID: e.ID, Name: e.Name, File: e.File})
	}
	return out
}

// PartitionImages splits the existing image list into images that survive the
// edit and images removed by it, preserving the original relative order of
// survivors. Delete IDs that match no existing image are ignored.
func PartitionImages(existing []ImageRef, deleteIDs []string) (kept, removed []ImageRef) {
	if len(deleteIDs) == 0 {
		return existing, nil
	}
	drop := make(map[string]struct{}, len(deleteIDs))
	for _, id := range deleteIDs {
		drop[id] = struct{}{}
	}
	kept = make([]ImageRef, 0, len(existing))
	for _, img := range existing {
		if _, ok := drop[img.ID]; ok {
			removed = append(removed, img)
			continue
		}
		kept = append(kept, img)
	}
	return kept, removed
}

// PartitionVariants splits the existing color variants into survivors and
// variants removed by the given delete instructions, preserving the original
// relative order of survivors. Delete IDs that match no variant are ignored.
func PartitionVariants(existing []ColorVariant, deleteIDs []string) (kept, removed []ColorVariant) {
	if len(deleteIDs) == 0 {
		return existing, nil
	}
	drop := make(map[string]struct{}, len(deleteIDs))
	for _, id := range deleteIDs {
		drop[id] = struct{}{}
	}
	kept = make([]ColorVariant, 0, len(existing))
	for _, v := range existing {
		if _, ok := drop[v.ID]; ok {
			removed = append(removed, v)
			continue
		}
		kept = append(kept, v)
	}
	return kept, removed
}
