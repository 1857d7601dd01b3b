package dom

import "fmt"

// PatchOp is the type of patch operation.
type PatchOp uint8

const (
	PatchInsertNode  PatchOp = 0x01 // Insert rendered subtree under ParentID at Index
	PatchRemoveNode  PatchOp = 0x02 // Remove node ID
	PatchSetAttr     PatchOp = 0x03 // Set attribute Key to Value
	PatchRemoveAttr  PatchOp = 0x04 // Remove attribute Key
	PatchSetText     PatchOp = 0x05 // Replace text content
	PatchAddClass    PatchOp = 0x06 // Add class Value
	PatchRemoveClass PatchOp = 0x07 // Remove class Value
)

var patchOpNames = map[PatchOp]string{
	PatchInsertNode:  "insert",
	PatchRemoveNode:  "remove",
	PatchSetAttr:     "setAttr",
	PatchRemoveAttr:  "removeAttr",
	PatchSetText:     "setText",
	PatchAddClass:    "addClass",
	PatchRemoveClass: "removeClass",
}

// String returns the wire name of the PatchOp.
func (op PatchOp) String() string {
	if name, ok := patchOpNames[op]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the op by name.
func (op PatchOp) MarshalText() ([]byte, error) {
	if _, ok := patchOpNames[op]; !ok {
		return nil, fmt.Errorf("dom: unknown patch op %d", op)
	}
	return []byte(op.String()), nil
}

// UnmarshalText decodes an op name.
func (op *PatchOp) UnmarshalText(b []byte) error {
	for k, v := range patchOpNames {
		if v == string(b) {
			*op = k
			return nil
		}
	}
	return fmt.Errorf("dom: unknown patch op %q", b)
}

// Patch is a single page mutation to replay on the client.
type Patch struct {
	Op       PatchOp `json:"op"`
	ID       string  `json:"id,omitempty"`
	ParentID string  `json:"parent,omitempty"`
	Index    int     `json:"index,omitempty"`
	Key      string  `json:"key,omitempty"`
	Value    string  `json:"value,omitempty"`
	HTML     string  `json:"html,omitempty"`
}
